package session

import (
	"context"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// HTTPSession is the no-browser acquisition path: a single GET through a
// hardened HTTP client. It implements Session so the pipeline runs
// unchanged against static pages; the reveal primitives report that no
// further content can be surfaced.
type HTTPSession struct {
	client *resty.Client

	mu     sync.Mutex
	body   string
	opened bool
	closed bool
}

var _ Session = (*HTTPSession)(nil)

// NewHTTPSession creates an HTTP session with the Cloudflare bypass round
// tripper and a browser-like User-Agent.
func NewHTTPSession(timeout time.Duration) *HTTPSession {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(timeout)
	return &HTTPSession{client: client}
}

// Open GETs the URL and keeps the body as the session's single snapshot.
func (s *HTTPSession) Open(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &RenderError{Reason: "session closed"}
	}

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &NavigationError{URL: url, Status: resp.StatusCode()}
	}

	s.body = string(resp.Body())
	s.opened = true
	return nil
}

// HTML returns the fetched body.
func (s *HTTPSession) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", &RenderError{Reason: "session closed"}
	}
	if !s.opened {
		return "", &RenderError{Reason: "session not opened"}
	}
	return s.body, nil
}

// Count matches selector against the fetched body.
func (s *HTTPSession) Count(ctx context.Context, selector string) (int, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, &RenderError{Reason: "parse body", Err: err}
	}
	return doc.Find(selector).Length(), nil
}

// Click cannot interact with a static page; it reports the control absent
// so reveal strategies conclude end of content.
func (s *HTTPSession) Click(ctx context.Context, selector string) (bool, error) {
	if _, err := s.HTML(ctx); err != nil {
		return false, err
	}
	return false, nil
}

// ScrollBottom is a no-op: a static page has nothing left to load.
func (s *HTTPSession) ScrollBottom(ctx context.Context) error {
	_, err := s.HTML(ctx)
	return err
}

// WaitQuiet returns immediately: the body never changes after Open.
func (s *HTTPSession) WaitQuiet(ctx context.Context) error {
	_, err := s.HTML(ctx)
	return err
}

// Close discards the body. Idempotent.
func (s *HTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.body = ""
	return nil
}
