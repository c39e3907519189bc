// Package surface abstracts the live WhatsApp Web page behind a small
// capability contract. All knowledge of how locating, clicking, typing and
// state persistence actually happen lives in the implementations; the rest of
// the bot only sees this interface, which is what keeps the scan/parse/dispatch
// pipeline testable without a browser.
package surface

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no element matched a selector within its bounded
// wait. Callers that treat absence as a normal outcome (unread probes,
// fallback chains) check for it with errors.Is.
var ErrNotFound = errors.New("surface: no element matched selector")

// Surface is the conversation surface capability: a live, authenticated web
// chat UI. Exactly one page is driven at a time.
type Surface interface {
	// Navigate loads the given URL and waits for the DOM to be ready.
	Navigate(ctx context.Context, url string) error

	// BringToFront focuses the page.
	BringToFront(ctx context.Context) error

	// Locate waits up to timeout for at least one element matching selector,
	// then returns every match in DOM order. A timeout yields ErrNotFound.
	Locate(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)

	// EvaluateScript runs a JavaScript expression on the page, discarding the
	// result.
	EvaluateScript(ctx context.Context, js string) error

	// CaptureState serializes the authenticated session (cookies plus web
	// storage) into an opaque blob.
	CaptureState(ctx context.Context) ([]byte, error)

	// RestoreState replays a blob previously produced by CaptureState.
	RestoreState(ctx context.Context, blob []byte) error
}

// Element is a handle to a single located DOM node.
type Element interface {
	// Click activates the element with a left click.
	Click(ctx context.Context) error

	// Type clears the element and types text into it.
	Type(ctx context.Context, text string) error

	// PressEnter submits via the element's default Enter keystroke.
	PressEnter(ctx context.Context) error

	// ReadAttribute returns the named attribute, or "" when unset.
	ReadAttribute(ctx context.Context, name string) (string, error)

	// ReadInnerText returns the rendered text content.
	ReadInnerText(ctx context.Context) (string, error)

	// Locate scopes a selector search to this element's subtree. Timeout
	// semantics match Surface.Locate.
	Locate(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)
}
