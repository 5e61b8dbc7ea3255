// Package browser runs the timetable pages the finder drives. Each Session
// is an isolated Chrome page implementing surface.Document; the
// SessionManager launches one Chrome per session on a port reserved from a
// PortRegistry, or opens incognito pages on an already running Chrome.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"seatfinder/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// Config holds browser configuration.
type Config struct {
	// DebuggerURL connects to a running Chrome instead of launching one.
	DebuggerURL string
	// ChromeBin overrides the browser binary; empty lets rod find or
	// download one.
	ChromeBin string
	// Flags are extra Chrome switches, "--name=value" or "--name".
	Flags    []string
	Headless bool
	// Port pins the debugging port of a single launched Chrome. Zero
	// reserves a free port per session starting at DefaultPort.
	Port              int
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	// LocateTimeout bounds how long a locate waits for its element to render.
	LocateTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:          false,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		NavigationTimeout: 30 * time.Second,
		LocateTimeout:     10 * time.Second,
	}
}

func (c Config) navigationTimeout() time.Duration {
	if c.NavigationTimeout <= 0 {
		return 30 * time.Second
	}
	return c.NavigationTimeout
}

func (c Config) locateTimeout() time.Duration {
	if c.LocateTimeout <= 0 {
		return 10 * time.Second
	}
	return c.LocateTimeout
}

// SessionInfo describes the public metadata for a tracked session.
type SessionInfo struct {
	ID         string
	Port       int
	ControlURL string
	TargetID   string
	CreatedAt  time.Time
}

// SessionManager owns the Chrome instances behind every open session.
type SessionManager struct {
	cfg   Config
	ports *PortRegistry

	mu       sync.Mutex
	shared   *rod.Browser // connected via DebuggerURL, shared by sessions
	sessions map[string]*Session
}

// NewSessionManager creates a session manager. ports may be nil when
// cfg.DebuggerURL is set.
func NewSessionManager(cfg Config, ports *PortRegistry) *SessionManager {
	if ports == nil {
		ports = NewPortRegistry(MinPort, MaxPort)
	}
	return &SessionManager{cfg: cfg, ports: ports, sessions: make(map[string]*Session)}
}

// NewSession opens an isolated page. The caller must Close it.
func (m *SessionManager) NewSession(ctx context.Context) (*Session, error) {
	if m.cfg.DebuggerURL != "" {
		return m.attachSession(ctx)
	}
	return m.launchSession(ctx)
}

func (m *SessionManager) launchSession(ctx context.Context) (*Session, error) {
	var (
		port int
		err  error
	)
	if m.cfg.Port != 0 {
		err = m.ports.Claim(m.cfg.Port)
		port = m.cfg.Port
	} else {
		port, err = m.ports.Reserve(DefaultPort)
	}
	if err != nil {
		return nil, fmt.Errorf("reserve debugging port: %w", err)
	}

	l := m.launcher(port)
	controlURL, err := l.Launch()
	if err != nil {
		m.ports.Release(port)
		return nil, fmt.Errorf("launch chrome on port %d: %w", port, err)
	}
	logging.Browser("launched chrome on port %d (%s)", port, controlURL)

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		m.ports.Release(port)
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	s, err := m.openPage(b, controlURL)
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		m.ports.Release(port)
		return nil, err
	}
	s.info.Port = port
	s.closer = func() error {
		err := b.Close()
		if err != nil {
			logging.BrowserError("close chrome on port %d: %v", port, err)
		}
		// Close fails once ctx is cancelled, so kill the process regardless.
		l.Kill()
		l.Cleanup()
		m.ports.Release(port)
		return err
	}
	m.track(s)
	return s, nil
}

func (m *SessionManager) launcher(port int) *launcher.Launcher {
	l := launcher.New().Headless(m.cfg.Headless).RemoteDebuggingPort(port)
	if m.cfg.ChromeBin != "" {
		l = l.Bin(m.cfg.ChromeBin)
	}
	for _, raw := range m.cfg.Flags {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

func (m *SessionManager) attachSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.shared != nil {
		// Verify a cached connection is still alive
		if _, err := m.shared.Version(); err != nil {
			logging.BrowserWarn("stale browser connection detected, reconnecting: %v", err)
			_ = m.shared.Close()
			m.shared = nil
		}
	}
	if m.shared == nil {
		b := rod.New().ControlURL(m.cfg.DebuggerURL).Context(ctx)
		if err := b.Connect(); err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("connect to chrome at %s: %w", m.cfg.DebuggerURL, err)
		}
		m.shared = b
	}
	shared := m.shared
	m.mu.Unlock()

	incognito, err := shared.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	s, err := m.openPage(incognito, m.cfg.DebuggerURL)
	if err != nil {
		_ = incognito.Close()
		return nil, err
	}
	s.closer = incognito.Close
	m.track(s)
	return s, nil
}

func (m *SessionManager) openPage(b *rod.Browser, controlURL string) (*Session, error) {
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if m.cfg.ViewportWidth > 0 && m.cfg.ViewportHeight > 0 {
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             m.cfg.ViewportWidth,
			Height:            m.cfg.ViewportHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page); err != nil {
			logging.BrowserWarn("failed to set viewport: %v", err)
		}
	}
	return &Session{
		info: SessionInfo{
			ID:         uuid.NewString(),
			ControlURL: controlURL,
			TargetID:   string(page.TargetID),
			CreatedAt:  time.Now(),
		},
		page: page,
		cfg:  m.cfg,
	}, nil
}

func (m *SessionManager) track(s *Session) {
	s.manager = m
	m.mu.Lock()
	m.sessions[s.info.ID] = s
	m.mu.Unlock()
	logging.BrowserDebug("session %s opened (target %s)", s.info.ID, s.info.TargetID)
}

func (m *SessionManager) untrack(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Shutdown closes every open session and the shared connection.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	if m.shared != nil {
		if err := m.shared.Close(); err != nil {
			errs = append(errs, err)
		}
		m.shared = nil
	}
	m.mu.Unlock()
	return errors.Join(errs...)
}

// Session is one isolated page. It implements surface.Document.
type Session struct {
	info    SessionInfo
	page    *rod.Page
	cfg     Config
	manager *SessionManager

	closeOnce sync.Once
	closer    func() error
	closeErr  error
}

// Info returns the session's metadata.
func (s *Session) Info() SessionInfo { return s.info }

// Close closes the page and whatever Chrome state the session owns.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.page.Close()
		if s.closer != nil {
			s.closeErr = s.closer()
		}
		if s.manager != nil {
			s.manager.untrack(s.info.ID)
		}
		logging.BrowserDebug("session %s closed", s.info.ID)
	})
	return s.closeErr
}
