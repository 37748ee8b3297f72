package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/revpull/parse"
	"github.com/hazyhaar/revpull/pipeline"
	"github.com/hazyhaar/revpull/reveal"
	"github.com/hazyhaar/revpull/session"
	"github.com/hazyhaar/revpull/store"
)

// Service runs extraction pipelines on demand and persists their results.
// Safe for concurrent use: each Extract call gets its own session,
// strategy, and controller.
type Service struct {
	cfg    *Config
	logger *slog.Logger
	mgr    *session.Manager // nil in http mode
	st     *store.Store     // nil when the store is disabled
}

// New creates a Service. In browser mode this launches (or connects to)
// Chrome; call Close to release it.
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	svc := &Service{cfg: cfg, logger: logger}

	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("service: open store: %w", err)
		}
		svc.st = st
	}

	if cfg.Browser.Mode == "browser" {
		mgr := session.NewManager(session.Config{
			RemoteURL:        cfg.Browser.Remote,
			Headless:         !cfg.Browser.Headful,
			NavTimeout:       cfg.Browser.NavTimeout,
			QuietInterval:    cfg.Browser.QuietInterval,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			ScrollContainer:  cfg.Browser.ScrollContainer,
			Logger:           logger,
		})
		if err := mgr.Start(); err != nil {
			if svc.st != nil {
				svc.st.Close()
			}
			return nil, fmt.Errorf("service: start browser: %w", err)
		}
		svc.mgr = mgr
	}

	return svc, nil
}

// Store exposes the results store; nil when disabled.
func (s *Service) Store() *store.Store { return s.st }

// Extract runs one pipeline against url, persists the result when a store
// is configured, and returns it. The result carries its own terminal
// status and error classification; the returned error covers only
// infrastructure failures before the run could start.
func (s *Service) Extract(ctx context.Context, url string) (*pipeline.Result, error) {
	sess, err := s.newSession()
	if err != nil {
		return nil, err
	}

	res := pipeline.New(sess, s.newStrategy(), s.newParser(), pipeline.Config{
		MaxIterations:    s.cfg.Extract.MaxIterations,
		MaxDuration:      s.cfg.Extract.MaxDuration,
		NoNewThreshold:   s.cfg.Extract.NoNewThreshold,
		RetryAttempts:    s.cfg.Extract.RetryAttempts,
		RetryBackoffBase: s.cfg.Extract.RetryBackoffBase,
		ExpandSelector:   s.cfg.Extract.ExpandSelector,
		ExpandMaxPasses:  s.cfg.Extract.ExpandMaxPasses,
	}, s.logger).Run(ctx, url)

	if s.st != nil {
		if err := s.st.SaveResult(ctx, res); err != nil {
			// Persistence is best-effort; the caller still gets the records.
			s.logger.Error("service: save result failed",
				"run_id", res.RunID, "error", err)
		}
	}
	return res, nil
}

func (s *Service) newSession() (session.Session, error) {
	if s.cfg.Browser.Mode == "http" {
		return session.NewHTTPSession(s.cfg.Browser.NavTimeout), nil
	}
	if s.mgr == nil {
		return nil, fmt.Errorf("service: browser manager not running")
	}
	return s.mgr.NewSession()
}

func (s *Service) newStrategy() reveal.Strategy {
	sel := s.cfg.Extract.Selectors
	cardSelector := parse.DefaultSelectors().Card[0]
	if len(sel.Card) > 0 {
		cardSelector = sel.Card[0]
	}

	scroll := reveal.NewScroll(cardSelector)
	scroll.IdleThreshold = s.cfg.Extract.NoNewThreshold

	if s.cfg.Extract.LoadMoreSelector != "" {
		return reveal.NewAuto(reveal.NewClick(s.cfg.Extract.LoadMoreSelector), scroll)
	}
	return scroll
}

func (s *Service) newParser() pipeline.Parser {
	return parse.New(s.cfg.Extract.Selectors)
}

// Close releases the browser and the store.
func (s *Service) Close() error {
	var firstErr error
	if s.mgr != nil {
		if err := s.mgr.Close(); err != nil {
			firstErr = err
		}
	}
	if s.st != nil {
		if err := s.st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
