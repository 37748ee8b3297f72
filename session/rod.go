package session

import (
	"context"
	"errors"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// RodSession drives a stealth Chrome tab. Created by Manager.NewSession;
// Open creates the tab, Close releases it.
type RodSession struct {
	mgr *Manager
	cfg Config

	mu     sync.Mutex
	page   *rod.Page
	closed bool
}

var _ Session = (*RodSession)(nil)

// Open creates a stealth tab, applies resource blocking, navigates, and
// waits for the load event. The whole sequence is bounded by NavTimeout.
func (s *RodSession) Open(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &RenderError{Reason: "session closed"}
	}

	b := s.mgr.rodBrowser()
	if b == nil {
		return &NavigationError{URL: url, Err: errors.New("browser not running")}
	}

	page, err := stealth.Page(b)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	if len(s.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, s.cfg.ResourceBlocking); err != nil {
			s.cfg.Logger.Warn("session: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		return &NavigationError{URL: url, Err: err}
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		page.Close()
		return &NavigationError{URL: url, Err: err}
	}

	s.page = page
	return nil
}

// HTML serialises the full document as outer HTML.
func (s *RodSession) HTML(ctx context.Context) (string, error) {
	page, err := s.livePage()
	if err != nil {
		return "", err
	}
	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", &RenderError{Reason: "get DOM", Err: err}
	}
	return res.Value.Str(), nil
}

// Count reports how many elements match selector right now.
func (s *RodSession) Count(ctx context.Context, selector string) (int, error) {
	page, err := s.livePage()
	if err != nil {
		return 0, err
	}
	res, err := page.Context(ctx).Eval(
		`(sel) => document.querySelectorAll(sel).length`, selector)
	if err != nil {
		return 0, &RenderError{Reason: "count " + selector, Err: err}
	}
	return res.Value.Int(), nil
}

// Click clicks the first element matching selector via the page's own
// click handler. Elements are scrolled into view first so lazy feeds
// register the interaction.
func (s *RodSession) Click(ctx context.Context, selector string) (bool, error) {
	page, err := s.livePage()
	if err != nil {
		return false, err
	}
	res, err := page.Context(ctx).Eval(`(sel) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	}`, selector)
	if err != nil {
		return false, &RenderError{Reason: "click " + selector, Err: err}
	}
	return res.Value.Bool(), nil
}

// ScrollBottom scrolls the configured feed container, or the window when
// none is configured, to its bottom.
func (s *RodSession) ScrollBottom(ctx context.Context) error {
	page, err := s.livePage()
	if err != nil {
		return err
	}
	_, err = page.Context(ctx).Eval(`(sel) => {
		const el = sel ? document.querySelector(sel) : null;
		if (el) {
			el.scrollTop = el.scrollHeight;
		} else {
			window.scrollTo(0, document.body.scrollHeight);
		}
	}`, s.cfg.ScrollContainer)
	if err != nil {
		return &RenderError{Reason: "scroll", Err: err}
	}
	return nil
}

// WaitQuiet waits for the DOM to stop mutating. A page that never settles
// is not an error: after a bounded wait the caller proceeds with whatever
// rendered.
func (s *RodSession) WaitQuiet(ctx context.Context) error {
	page, err := s.livePage()
	if err != nil {
		return err
	}

	quietCtx, cancel := context.WithTimeout(ctx, 10*s.cfg.QuietInterval)
	defer cancel()

	err = page.Context(quietCtx).WaitDOMStable(s.cfg.QuietInterval, 0)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil
	}
	if err != nil {
		return &RenderError{Reason: "wait quiet", Err: err}
	}
	return nil
}

// Close releases the tab. Idempotent.
func (s *RodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.page != nil {
		err := s.page.Close()
		s.page = nil
		return err
	}
	return nil
}

func (s *RodSession) livePage() (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &RenderError{Reason: "session closed"}
	}
	if s.page == nil {
		return nil, &RenderError{Reason: "session not opened"}
	}
	return s.page, nil
}
