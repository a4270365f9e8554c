package framing

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/homescreen/internal/providers/http/client"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
)

// Fetcher performs the probe request
type Fetcher interface {
	Get(ctx context.Context, url string, query map[string]string) (*client.Response, error)
}

// Phrases found in the text of browser and server pages shown in place of a
// framed document
var refusalPhrases = []string{
	"x-frame-options",
	"frame denied",
	"refused to connect",
	"refused to display",
	"frame-ancestors",
}

// XPath markers of browser error pages
var errorPageMarkers = []string{
	"//div[@id='main-frame-error']",
	"//body[contains(concat(' ', normalize-space(@class), ' '), ' neterror ')]",
	"//*[@id='errorPageContainer']",
}

// Probe guesses whether a URL can be shown inside a frame of the shell
type Probe struct {
	fetcher Fetcher
	origin  *url.URL
	logger  *zap.Logger
}

// New creates a probe. origin is the shell's page origin.
func New(fetcher Fetcher, origin string, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	o, err := url.Parse(origin)
	if err != nil {
		o = &url.URL{}
	}
	return &Probe{fetcher: fetcher, origin: o, logger: logger}
}

// Refused fetches target and inspects its framing headers. A fetch error is
// returned with false; the page's own load report is the fallback signal.
func (p *Probe) Refused(ctx context.Context, target string) (bool, error) {
	resp, err := p.fetcher.Get(ctx, target, nil)
	if err != nil {
		return false, err
	}
	if reason, refused := p.HeadersRefuse(resp.Header); refused {
		p.logger.Debug("Framing refused by headers", zap.String("url", target), zap.String("reason", reason))
		return true, nil
	}
	return false, nil
}

// HeadersRefuse applies X-Frame-Options and the CSP frame-ancestors
// directive for a cross-origin parent
func (p *Probe) HeadersRefuse(h http.Header) (string, bool) {
	for _, v := range h.Values("Content-Security-Policy") {
		if sources, ok := frameAncestors(v); ok {
			if !p.sourcesAllow(sources) {
				return "frame-ancestors", true
			}
			// frame-ancestors overrides X-Frame-Options
			return "", false
		}
	}

	xfo := strings.ToUpper(strings.TrimSpace(h.Get("X-Frame-Options")))
	switch {
	case xfo == "":
		return "", false
	case xfo == "DENY", xfo == "SAMEORIGIN":
		return "x-frame-options " + strings.ToLower(xfo), true
	case strings.HasPrefix(xfo, "ALLOW-FROM"):
		from := strings.TrimSpace(xfo[len("ALLOW-FROM"):])
		if !p.sameOrigin(from) {
			return "x-frame-options allow-from", true
		}
	}
	return "", false
}

func frameAncestors(policy string) ([]string, bool) {
	for _, directive := range strings.Split(policy, ";") {
		fields := strings.Fields(directive)
		if len(fields) == 0 || strings.ToLower(fields[0]) != "frame-ancestors" {
			continue
		}
		return fields[1:], true
	}
	return nil, false
}

func (p *Probe) sourcesAllow(sources []string) bool {
	for _, s := range sources {
		s = strings.ToLower(strings.Trim(s, " "))
		switch {
		case s == "*":
			return true
		case s == "'none'", s == "'self'":
			// 'self' never matches a cross-origin parent
		case strings.HasSuffix(s, ":") && !strings.Contains(s, "/"):
			if strings.TrimSuffix(s, ":") == p.origin.Scheme {
				return true
			}
		default:
			if p.hostMatches(s) {
				return true
			}
		}
	}
	return false
}

func (p *Probe) hostMatches(source string) bool {
	scheme := ""
	host := source
	if i := strings.Index(source, "://"); i >= 0 {
		scheme, host = source[:i], source[i+3:]
	}
	host = strings.TrimSuffix(host, "/")
	if scheme != "" && scheme != p.origin.Scheme {
		return false
	}
	origin := strings.ToLower(p.origin.Host)
	if strings.HasPrefix(host, "*.") {
		return strings.HasSuffix(origin, host[1:])
	}
	return host == origin || host == strings.ToLower(p.origin.Hostname())
}

func (p *Probe) sameOrigin(raw string) bool {
	u, err := url.Parse(strings.ToLower(raw))
	if err != nil {
		return false
	}
	return u.Scheme == p.origin.Scheme && u.Host == strings.ToLower(p.origin.Host)
}

// LooksRefused inspects a document the page loaded into a frame for signs
// that the browser or server refused to show it
func (p *Probe) LooksRefused(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	data := utf8(body)

	if node, err := loadNode(data); err == nil {
		for _, expr := range errorPageMarkers {
			if n, err := htmlquery.Query(node, expr); err == nil && n != nil {
				return true
			}
		}
	}

	text := string(data)
	if doc, err := loadDocument(data); err == nil {
		text = doc.Find("title").Text() + " " + doc.Find("body").Text()
	}
	text = strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
