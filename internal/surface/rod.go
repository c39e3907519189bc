package surface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Options configures the rod-backed surface.
type Options struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
}

// DefaultOptions returns sensible defaults. Headless is off because the login
// challenge is a QR code a human has to scan.
func DefaultOptions() Options {
	return Options{
		Headless:       false,
		ViewportWidth:  1280,
		ViewportHeight: 900,
		NavTimeout:     30 * time.Second,
	}
}

// RodSurface drives a single Chromium page over CDP via go-rod.
type RodSurface struct {
	opts     Options
	log      *zap.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Open launches Chromium, connects and creates the page the bot will drive.
func Open(ctx context.Context, opts Options, log *zap.Logger) (*RodSurface, error) {
	l := launcher.New().Headless(opts.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		log.Warn("failed to set viewport", zap.Error(err))
	}

	log.Info("browser ready", zap.Bool("headless", opts.Headless))
	return &RodSurface{opts: opts, log: log, launcher: l, browser: browser, page: page}, nil
}

// Close shuts the page, browser and launcher down, in that order.
func (s *RodSurface) Close() error {
	var err error
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.log.Info("browser closed")
	return err
}

func (s *RodSurface) Navigate(ctx context.Context, url string) error {
	s.log.Info("navigating", zap.String("url", url))
	if err := s.page.Context(ctx).Timeout(s.opts.NavTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	// Load can straggle behind an SPA's first paint; the selector waits that
	// follow carry their own timeouts, so a slow load is not fatal here.
	if err := s.page.Context(ctx).Timeout(s.opts.NavTimeout).WaitLoad(); err != nil {
		s.log.Debug("page load wait expired", zap.Error(err))
	}
	return nil
}

func (s *RodSurface) BringToFront(ctx context.Context) error {
	_, err := s.page.Context(ctx).Activate()
	return err
}

func (s *RodSurface) Locate(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	// Wait for the first match, then enumerate all of them in DOM order.
	if _, err := s.page.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		return nil, mapLocateErr(ctx, err)
	}
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, mapLocateErr(ctx, err)
	}
	return wrapElements(els), nil
}

func (s *RodSurface) EvaluateScript(ctx context.Context, js string) error {
	_, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	return err
}

// sessionState is the on-disk shape of the opaque blob: cookies plus both web
// storages, which is everything WhatsApp Web needs to skip the QR challenge.
type sessionState struct {
	Cookies []*proto.NetworkCookie `json:"cookies"`
	Local   string                 `json:"local_storage"`
	Session string                 `json:"session_storage"`
}

func (s *RodSurface) CaptureState(ctx context.Context) ([]byte, error) {
	cookies, err := s.page.Context(ctx).Cookies([]string{})
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	state := sessionState{
		Cookies: cookies,
		Local:   s.snapshotStorage(ctx, "localStorage"),
		Session: s.snapshotStorage(ctx, "sessionStorage"),
	}
	return json.Marshal(state)
}

func (s *RodSurface) RestoreState(ctx context.Context, blob []byte) error {
	var state sessionState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("decode session blob: %w", err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(state.Cookies))
	for _, c := range state.Cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite,
			Priority: c.Priority,
		})
	}
	if len(params) > 0 {
		if err := s.page.Context(ctx).SetCookies(params); err != nil {
			return fmt.Errorf("restore cookies: %w", err)
		}
	}

	_, _ = s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `
		(local, session) => {
			try {
				const l = JSON.parse(local || "{}");
				Object.entries(l).forEach(([k, v]) => localStorage.setItem(k, v));
			} catch (e) {}
			try {
				const s = JSON.parse(session || "{}");
				Object.entries(s).forEach(([k, v]) => sessionStorage.setItem(k, v));
			} catch (e) {}
		}
		`,
		JSArgs:       []interface{}{state.Local, state.Session},
		ByValue:      true,
		AwaitPromise: true,
		UserGesture:  true,
	})

	// Reload so the app boots against the restored identity.
	if err := s.page.Context(ctx).Timeout(s.opts.NavTimeout).Reload(); err != nil {
		return fmt.Errorf("reload after restore: %w", err)
	}
	return nil
}

func (s *RodSurface) snapshotStorage(ctx context.Context, store string) string {
	js := fmt.Sprintf(`() => {
		try {
			const out = {};
			for (const key of Object.keys(%s)) {
				out[key] = %s.getItem(key);
			}
			return JSON.stringify(out);
		} catch (e) {
			return "{}";
		}
	}`, store, store)

	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil || res.Value.Nil() {
		return "{}"
	}
	return res.Value.String()
}

// rodElement adapts *rod.Element to the Element contract.
type rodElement struct {
	el *rod.Element
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Type(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	// Replacing any draft: select everything first so Input overwrites it.
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (e *rodElement) PressEnter(ctx context.Context) error {
	return e.el.Context(ctx).Type(input.Enter)
}

func (e *rodElement) ReadAttribute(ctx context.Context, name string) (string, error) {
	val, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

func (e *rodElement) ReadInnerText(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Locate(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	if _, err := e.el.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		return nil, mapLocateErr(ctx, err)
	}
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, mapLocateErr(ctx, err)
	}
	return wrapElements(els), nil
}

// mapLocateErr folds rod's timeout shapes into ErrNotFound while letting a
// caller-initiated cancellation keep its identity.
func mapLocateErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNotFound
	}
	return err
}
