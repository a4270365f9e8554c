// Package framing guesses whether a third-party page can be embedded in
// the shell.
//
// Before a cross-origin app is framed, Probe fetches it and reads
// X-Frame-Options and the CSP frame-ancestors directive. After the page
// reports a loaded frame, LooksRefused inspects the document (charset
// detected with chardet, queried with goquery and htmlquery) for browser
// error pages and refusal messages. Both are heuristics.
package framing
