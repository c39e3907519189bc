package command

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Handler produces the reply for one command invocation.
type Handler func(args []string) string

// Registry resolves command names to handlers. The table is static for the
// process lifetime apart from the synthesized help entry; Register exists so
// callers can extend it without touching the dispatch logic.
type Registry struct {
	prefix   string
	handlers map[string]Handler
	log      *zap.Logger
}

// NewRegistry creates a Registry with the built-in commands.
func NewRegistry(prefix string, log *zap.Logger) *Registry {
	r := &Registry{
		prefix:   prefix,
		handlers: make(map[string]Handler),
		log:      log,
	}

	start := time.Now()
	r.RegisterStatic("ping", "pong")
	r.Register("echo", func(args []string) string {
		if len(args) == 0 {
			return "Nothing to echo."
		}
		return strings.Join(args, " ")
	})
	r.Register("uptime", func([]string) string {
		return fmt.Sprintf("Up for %s.", time.Since(start).Round(time.Second))
	})
	return r
}

// Register binds a handler to a lower-cased command name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[strings.ToLower(name)] = h
}

// RegisterStatic binds a canned reply to a command name.
func (r *Registry) RegisterStatic(name, reply string) {
	r.Register(name, func([]string) string { return reply })
}

// Handle dispatches a parsed command. It always produces a textual reply and
// never fails: unknown names get a hint pointing at help.
func (r *Registry) Handle(cmd ParsedCommand) string {
	r.log.Info("handling command", zap.String("name", cmd.Name), zap.Strings("args", cmd.Args))

	if cmd.Name == "help" {
		return r.helpMessage()
	}
	if h, ok := r.handlers[cmd.Name]; ok {
		return h(cmd.Args)
	}

	r.log.Warn("unknown command", zap.String("name", cmd.Name))
	return fmt.Sprintf("Unknown command '%s'. Try '%s help'.", cmd.Name, r.prefix)
}

// helpMessage lists every known command, help included, sorted and
// deduplicated, one per line.
func (r *Registry) helpMessage() string {
	set := map[string]struct{}{"help": {}}
	for name := range r.handlers {
		set[name] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:")
	for _, name := range names {
		b.WriteString(fmt.Sprintf("\n- %s %s", r.prefix, name))
	}
	return b.String()
}
