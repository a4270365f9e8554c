// Package embed manages iframe-hosted mini-app sessions.
//
// The manager keeps one session per URL and at most one Active session.
// Minimizing hides a frame without destroying it so that reopening the same
// app restores its in-memory state. Frames that refuse to be embedded are
// replaced by a top-level navigation. Messages from the shell are relayed to
// the session whose app id matches the envelope's targetApp.
package embed
