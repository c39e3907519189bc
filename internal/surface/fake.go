package surface

import (
	"context"
	"sync"
	"time"
)

// Fake is an in-memory Surface for tests. Selectors resolve against a scripted
// map instead of a DOM, waits return immediately, and every call is recorded
// so tests can assert on interaction counts.
type Fake struct {
	mu sync.Mutex

	// Nodes maps a selector to the handles it resolves to. A missing or empty
	// entry behaves like a locate timeout.
	Nodes map[string][]*FakeElement

	// Steps, when set for a selector, overrides Nodes once per Locate call in
	// order. It lets a test script "marker appears on the third probe".
	Steps map[string][][]*FakeElement

	// State is what CaptureState returns and RestoreState records.
	State []byte

	// Recorded interactions.
	Navigations []string
	Scripts     []string
	FrontCalls  int
	LocateCalls int
	Restored    [][]byte

	// CaptureErr, when set, is returned by CaptureState.
	CaptureErr error
}

// NewFake returns an empty fake surface.
func NewFake() *Fake {
	return &Fake{
		Nodes: make(map[string][]*FakeElement),
		Steps: make(map[string][][]*FakeElement),
	}
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, url)
	return nil
}

func (f *Fake) BringToFront(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FrontCalls++
	return nil
}

func (f *Fake) Locate(_ context.Context, selector string, _ time.Duration) ([]Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LocateCalls++

	if steps, ok := f.Steps[selector]; ok && len(steps) > 0 {
		head := steps[0]
		f.Steps[selector] = steps[1:]
		return toElements(head)
	}
	return toElements(f.Nodes[selector])
}

func (f *Fake) EvaluateScript(_ context.Context, js string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scripts = append(f.Scripts, js)
	return nil
}

func (f *Fake) CaptureState(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CaptureErr != nil {
		return nil, f.CaptureErr
	}
	return f.State, nil
}

func (f *Fake) RestoreState(_ context.Context, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Restored = append(f.Restored, blob)
	return nil
}

// Set scripts a selector to resolve to the given handles.
func (f *Fake) Set(selector string, els ...*FakeElement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Nodes[selector] = els
}

// Step appends one scripted Locate result for a selector; nil means timeout.
func (f *Fake) Step(selector string, els ...*FakeElement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Steps[selector] = append(f.Steps[selector], els)
}

func toElements(els []*FakeElement) ([]Element, error) {
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out, nil
}

// FakeElement is a scripted DOM node.
type FakeElement struct {
	mu sync.Mutex

	Text     string
	Attrs    map[string]string
	Children map[string][]*FakeElement

	Clicks    int
	Typed     []string
	EnterHits int
}

// NewFakeElement builds a node with the given inner text.
func NewFakeElement(text string) *FakeElement {
	return &FakeElement{
		Text:     text,
		Attrs:    make(map[string]string),
		Children: make(map[string][]*FakeElement),
	}
}

// WithAttr sets an attribute and returns the element for chaining.
func (e *FakeElement) WithAttr(name, value string) *FakeElement {
	e.Attrs[name] = value
	return e
}

// WithChildren scripts a scoped selector under this element.
func (e *FakeElement) WithChildren(selector string, els ...*FakeElement) *FakeElement {
	e.Children[selector] = els
	return e
}

func (e *FakeElement) Click(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Clicks++
	return nil
}

func (e *FakeElement) Type(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Typed = append(e.Typed, text)
	return nil
}

func (e *FakeElement) PressEnter(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.EnterHits++
	return nil
}

func (e *FakeElement) ReadAttribute(_ context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Attrs[name], nil
}

func (e *FakeElement) ReadInnerText(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Text, nil
}

func (e *FakeElement) Locate(_ context.Context, selector string, _ time.Duration) ([]Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return toElements(e.Children[selector])
}

// TypedTexts returns a snapshot of everything typed into the element. Safe to
// call while another goroutine drives the surface.
func (e *FakeElement) TypedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.Typed...)
}
