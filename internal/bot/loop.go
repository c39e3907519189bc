// Package bot runs the poll loop that ties the scan, parse, dispatch and send
// stages together.
package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/ai"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/chat"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/command"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/session"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

// Loop is the orchestrator: one logical thread driving a fixed-cadence cycle
// over the surface until the context is cancelled.
type Loop struct {
	surf      surface.Surface
	monitor   *session.Monitor
	scanner   *chat.Scanner
	sender    *chat.Sender
	parser    *command.Parser
	registry  *command.Registry
	completer ai.Completer
	log       *zap.Logger

	interval    time.Duration
	sessionPath string
}

// Options are the orchestration knobs.
type Options struct {
	Interval    time.Duration
	SessionPath string
}

// New assembles a Loop. completer may be nil when AI replies are disabled.
func New(
	surf surface.Surface,
	monitor *session.Monitor,
	scanner *chat.Scanner,
	sender *chat.Sender,
	parser *command.Parser,
	registry *command.Registry,
	completer ai.Completer,
	opts Options,
	log *zap.Logger,
) *Loop {
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Loop{
		surf:        surf,
		monitor:     monitor,
		scanner:     scanner,
		sender:      sender,
		parser:      parser,
		registry:    registry,
		completer:   completer,
		log:         log,
		interval:    interval,
		sessionPath: opts.SessionPath,
	}
}

// Run authenticates once, then polls until ctx is cancelled. Cancellation is
// honored between steps, never mid-primitive. Whatever the exit path, one
// best-effort session persistence runs before returning. A nil return means a
// clean interrupt; anything else is fatal to the process.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		// Unexpected faults escaping a cycle still get the final persist and
		// a typed exit instead of a crash.
		if r := recover(); r != nil {
			err = fmt.Errorf("poll loop panic: %v", r)
		}
		l.persistSession()
	}()

	if err := l.monitor.EnsureSession(ctx); err != nil {
		return err
	}
	l.persistSession()

	l.log.Info("bot ready, listening for messages", zap.Duration("interval", l.interval))

	cycle := 0
	for {
		select {
		case <-ctx.Done():
			l.log.Info("interrupted, shutting down", zap.Int("cycles", cycle))
			return nil
		default:
		}

		cycle++
		l.log.Debug("poll cycle", zap.Int("cycle", cycle))
		l.runCycle(ctx)

		// Cancellable pacing: an interrupt mid-wait exits immediately instead
		// of sleeping out the interval.
		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.log.Info("interrupted, shutting down", zap.Int("cycles", cycle))
			return nil
		case <-timer.C:
		}
	}
}

// runCycle performs one scan-parse-dispatch-send pass.
func (l *Loop) runCycle(ctx context.Context) {
	for _, msg := range l.scanner.Collect(ctx) {
		l.log.Info("new message", zap.String("text", truncate(msg.Text, 80)), zap.Bool("from_me", msg.FromMe))

		parsed, ok := l.parser.Parse(msg.Text)
		if !ok {
			continue
		}

		var response string
		if parsed.IsCommand() {
			response = l.registry.Handle(*parsed.Command)
		} else {
			response = ai.Answer(ctx, l.completer, parsed.Query, l.log)
		}

		if response == "" {
			continue
		}
		l.log.Info("responding", zap.String("text", truncate(response, 80)))
		if !l.sender.SendMessage(ctx, response) {
			l.log.Warn("reply was not sent")
		}
	}
}

// persistSession captures the surface state into the configured blob path.
// Best effort: failures are logged, never surfaced.
func (l *Loop) persistSession() {
	if l.sessionPath == "" {
		return
	}

	// Persistence must still run when the parent context is already
	// cancelled, so it gets its own bounded deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	blob, err := l.surf.CaptureState(ctx)
	if err != nil {
		l.log.Warn("session capture failed", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.sessionPath), 0o755); err != nil {
		l.log.Warn("session dir create failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.sessionPath, blob, 0o600); err != nil {
		l.log.Warn("session write failed", zap.Error(err))
		return
	}
	l.log.Info("session saved", zap.String("path", l.sessionPath))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
