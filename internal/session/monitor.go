// Package session drives the WhatsApp Web login state machine at startup.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/selectors"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

// State is the login state machine position. It only moves at startup; the
// poll loop never re-validates session liveness.
type State int

const (
	StateUnknown State = iota
	StateAwaitingAuthentication
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingAuthentication:
		return "awaiting_authentication"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoginTimeoutError reports that the authenticated marker never appeared
// within the login deadline.
type LoginTimeoutError struct {
	Elapsed time.Duration
	Polls   int
}

func (e *LoginTimeoutError) Error() string {
	return fmt.Sprintf("login timed out after %d polls in %s", e.Polls, e.Elapsed.Round(time.Second))
}

// Monitor watches the surface until the session is authenticated.
type Monitor struct {
	surf surface.Surface
	sel  *selectors.Store
	log  *zap.Logger

	pollInterval time.Duration
	loginTimeout time.Duration
	authProbe    time.Duration
	qrProbe      time.Duration

	state State
}

// NewMonitor creates a Monitor with the stock wait budgets: a 2s poll inside a
// 120s login deadline, 3s authenticated-marker probes and 1s QR probes.
func NewMonitor(surf surface.Surface, sel *selectors.Store, log *zap.Logger) *Monitor {
	return &Monitor{
		surf:         surf,
		sel:          sel,
		log:          log,
		pollInterval: 2 * time.Second,
		loginTimeout: 120 * time.Second,
		authProbe:    3 * time.Second,
		qrProbe:      1 * time.Second,
		state:        StateUnknown,
	}
}

// WithBudgets overrides the wait budgets. Used by tests and kept exported for
// deployments with slow links.
func (m *Monitor) WithBudgets(poll, deadline, authProbe, qrProbe time.Duration) *Monitor {
	m.pollInterval = poll
	m.loginTimeout = deadline
	m.authProbe = authProbe
	m.qrProbe = qrProbe
	return m
}

// State returns the current machine position.
func (m *Monitor) State() State {
	return m.state
}

// EnsureSession blocks until the authenticated marker is observed or the
// login deadline elapses. Called exactly once at startup.
func (m *Monitor) EnsureSession(ctx context.Context) error {
	m.state = StateAwaitingAuthentication
	if err := m.surf.BringToFront(ctx); err != nil {
		m.log.Debug("bring to front failed", zap.Error(err))
	}

	m.log.Info("waiting for login", zap.Duration("timeout", m.loginTimeout))
	start := time.Now()
	deadline := start.Add(m.loginTimeout)
	polls := 0

	for time.Now().Before(deadline) {
		polls++
		if m.IsAuthenticated(ctx) {
			m.state = StateAuthenticated
			m.log.Info("session ready", zap.Int("polls", polls), zap.Duration("elapsed", time.Since(start)))
			return nil
		}

		// The QR probe never changes the transition; it only tells the
		// operator whether a scan is pending.
		if m.qrVisible(ctx) {
			m.log.Info("QR code visible, awaiting scan", zap.Int("poll", polls))
		} else {
			m.log.Debug("still waiting for login", zap.Int("poll", polls))
		}

		select {
		case <-ctx.Done():
			m.state = StateFailed
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}

	m.state = StateFailed
	return &LoginTimeoutError{Elapsed: time.Since(start), Polls: polls}
}

// IsAuthenticated runs a single bounded probe for the chat list. It never
// blocks past the probe timeout and never returns an error.
func (m *Monitor) IsAuthenticated(ctx context.Context) bool {
	_, err := m.surf.Locate(ctx, m.sel.Current().ChatListReady, m.authProbe)
	return err == nil
}

func (m *Monitor) qrVisible(ctx context.Context) bool {
	_, err := m.surf.Locate(ctx, m.sel.Current().QRCode, m.qrProbe)
	return err == nil
}
