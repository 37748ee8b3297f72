package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Config configures the browser manager and the sessions it hands out.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Headless controls the launched Chrome. Ignored for RemoteURL.
	Headless bool

	// NavTimeout bounds Navigate + readiness wait. Default: 30s.
	NavTimeout time.Duration

	// ResourceBlocking lists resource types to block (images, fonts,
	// media, stylesheets). Review extraction needs none of them.
	ResourceBlocking []string

	// ScrollContainer is the selector of the scrollable feed element.
	// Empty = scroll the window.
	ScrollContainer string

	// QuietInterval is how long the DOM must stay unchanged before
	// WaitQuiet returns. Default: 500ms.
	QuietInterval time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.QuietInterval <= 0 {
		c.QuietInterval = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one Chrome process (or a connection to a remote one) and
// creates sessions off it. Independent extraction runs each get their own
// session; the browser is shared.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome or connects to the configured remote instance.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("session: manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	log := m.cfg.Logger
	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("session: connecting to remote browser", "url", wsURL)
	} else {
		l := launcher.New().Headless(m.cfg.Headless)

		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("session: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("session: launched local chrome", "headless", m.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("session: ignore cert errors failed", "error", err)
	}

	m.browser = b
	return nil
}

// NewSession creates a fresh browser session. The session owns its tab;
// the browser stays with the manager.
func (m *Manager) NewSession() (*RodSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.browser == nil {
		return nil, fmt.Errorf("session: manager not started")
	}
	return &RodSession{mgr: m, cfg: m.cfg}, nil
}

func (m *Manager) rodBrowser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// Close shuts down Chrome. Sessions created from this manager become
// unusable; their calls fail with *RenderError.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}
