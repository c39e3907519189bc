// wabot keeps a persistent session open against WhatsApp Web, polls it for
// new messages and answers commands or forwards queries to Gemini.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/ai"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/bot"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/chat"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/command"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/config"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/selectors"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/session"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

const whatsappURL = "https://web.whatsapp.com"

var (
	verbose  bool
	simulate bool
	headless bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wabot",
	Short: "WhatsApp Web bot with a command grammar and Gemini-backed replies",
	Long: `wabot drives a real WhatsApp Web session through a browser, scans for
unread messages on a fixed cadence and replies in the same conversation.

Messages starting with the command prefix (default "/bot") are interpreted:
a leading dash token invokes a built-in command, anything else is forwarded
to the Gemini completion backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&simulate, "simulate", false, "log replies instead of sending them")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
}

func runBot() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if simulate {
		cfg.SimulationMode = true
	}
	if headless {
		cfg.Headless = true
	}

	logger, err = buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	logger.Info("starting WhatsApp Web bot",
		zap.String("prefix", cfg.CommandPrefix),
		zap.Bool("simulation", cfg.SimulationMode),
		zap.Duration("interval", cfg.PollInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sel, err := selectors.NewStore(cfg.SelectorPath, logger.Named("selectors"))
	if err != nil {
		return err
	}
	if err := sel.Watch(ctx); err != nil {
		logger.Warn("selector hot reload unavailable", zap.Error(err))
	}

	opts := surface.DefaultOptions()
	opts.Headless = cfg.Headless
	// The browser outlives loop cancellation so the final session persist can
	// still talk to it; per-operation contexts carry the interrupt instead.
	surf, err := surface.Open(context.Background(), opts, logger.Named("browser"))
	if err != nil {
		return err
	}
	defer func() { _ = surf.Close() }()

	if err := surf.Navigate(ctx, whatsappURL); err != nil {
		return err
	}
	restoreSession(ctx, surf, cfg.SessionPath)

	var completer ai.Completer
	if cfg.GoogleAPIKey == "" {
		logger.Warn("GOOGLE_API_KEY not set, AI replies disabled")
	} else {
		gemini, err := ai.NewGemini(ctx, cfg.GoogleAPIKey)
		if err != nil {
			return err
		}
		completer = gemini
	}

	monitor := session.NewMonitor(surf, sel, logger.Named("session"))
	reader := chat.NewReader(surf, sel, logger.Named("reader"))
	scanner := chat.NewScanner(surf, sel, reader, chat.NewDeduplicator(), logger.Named("scanner"))
	sender := chat.NewSender(surf, sel, cfg.SimulationMode, logger.Named("sender"))
	parser := command.NewParser(cfg.CommandPrefix)
	registry := command.NewRegistry(cfg.CommandPrefix, logger.Named("commands"))

	loop := bot.New(surf, monitor, scanner, sender, parser, registry, completer, bot.Options{
		Interval:    cfg.PollInterval,
		SessionPath: cfg.SessionPath,
	}, logger.Named("loop"))

	return loop.Run(ctx)
}

// restoreSession replays a previously captured blob. Absence of the file just
// means a fresh QR challenge.
func restoreSession(ctx context.Context, surf surface.Surface, path string) {
	if path == "" {
		return
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no stored session, QR scan required", zap.String("path", path))
		} else {
			logger.Warn("session blob unreadable", zap.Error(err))
		}
		return
	}
	if err := surf.RestoreState(ctx, blob); err != nil {
		logger.Warn("session restore failed, continuing fresh", zap.Error(err))
		return
	}
	logger.Info("stored session restored", zap.String("path", path))
}

func buildLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("bot terminated", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
