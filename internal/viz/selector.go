package viz

import (
	"sync"

	"github.com/mcolombo/buslens/internal/decode"
)

// Update is a committed decode result, tagged with the selection
// generation it was produced for. Results for a superseded generation are
// rejected by Apply.
type Update struct {
	Topic   string
	Gen     uint64
	Content decode.Content
}

type job struct {
	raw decode.Raw
	gen uint64
}

// Selector owns the active ViewModel/View pair for the currently
// inspected topic and drives decoding for it. Decoding runs on a worker
// goroutine so large payloads never stall the render loop; results come
// back through Results and are committed with Apply on the UI goroutine.
//
// Select, Ingest, Apply and the render accessors must all be called from
// the same goroutine (the UI loop). Only the worker runs concurrently.
type Selector struct {
	reg       *decode.Registry
	wrapWidth int

	topic string
	gen   uint64

	vm      ViewModel
	view    View
	vp      *Viewport
	current decode.Content
	hasView bool

	jobs    chan job
	results chan Update
	done    chan struct{}
	once    sync.Once
}

// NewSelector starts the decode worker. wrapWidth fixes the text wrap
// column for text payloads; 0 follows the pane width.
func NewSelector(reg *decode.Registry, wrapWidth int) *Selector {
	s := &Selector{
		reg:       reg,
		wrapWidth: wrapWidth,
		vp:        NewViewport(0, 0),
		jobs:      make(chan job, 1),
		results:   make(chan Update),
		done:      make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Selector) worker() {
	for {
		select {
		case <-s.done:
			return
		case j := <-s.jobs:
			u := Update{Topic: j.raw.Topic, Gen: j.gen, Content: s.reg.Decode(j.raw)}
			select {
			case s.results <- u:
			case <-s.done:
				return
			}
		}
	}
}

// Select switches the inspected topic. The previous ViewModel/View pair is
// released, any in-flight decode is invalidated via the generation bump,
// and the scroll position resets to the top. Selecting the current topic
// again is a no-op so scroll position survives per-message navigation
// within a topic.
func (s *Selector) Select(topic string) {
	if topic == s.topic && s.hasView {
		return
	}
	s.topic = topic
	s.gen++
	s.vm = nil
	s.view = nil
	s.hasView = false
	s.current = decode.Content{}
	s.vp.Reset()
	s.drainJobs()
}

// Topic returns the currently selected topic.
func (s *Selector) Topic() string { return s.topic }

// Ingest queues a payload for decoding. Payloads for other topics are
// ignored. Backpressure is latest-wins: an undecoded queued payload for
// the target is superseded rather than accumulated.
func (s *Selector) Ingest(raw decode.Raw) {
	if raw.Topic != s.topic {
		return
	}

	j := job{raw: raw, gen: s.gen}
	select {
	case s.jobs <- j:
	default:
		s.drainJobs()
		// Cannot block: the buffer was just drained and this is the sole
		// producer goroutine.
		s.jobs <- j
	}
}

func (s *Selector) drainJobs() {
	select {
	case <-s.jobs:
	default:
	}
}

// Results exposes committed decode results for the UI loop to receive and
// feed back through Apply.
func (s *Selector) Results() <-chan Update { return s.results }

// Apply commits a decode result. Stale results (from before the latest
// Select) are discarded. When the decoded variant differs from the active
// pair's, the pair is rebuilt; the scroll position is preserved because
// the topic identity is unchanged.
func (s *Selector) Apply(u Update) bool {
	if u.Gen != s.gen || u.Topic != s.topic {
		return false
	}

	if !s.hasView || s.vm.Kind() != u.Content.Kind {
		s.vm, s.view = s.buildPair(u.Content.Kind)
		s.hasView = true
	}

	s.vm.Update(u.Content)
	s.current = u.Content
	s.rerender()
	return true
}

// buildPair constructs the matching ViewModel/View pair for a content
// kind. The mapping is a closed switch: every kind resolves to exactly
// one pair and dispatch happens once per variant change, not per frame.
func (s *Selector) buildPair(kind decode.Kind) (ViewModel, View) {
	switch kind {
	case decode.KindText:
		vm := NewTextViewModel()
		return vm, NewTextView(vm, s.wrapWidth)
	case decode.KindRecord:
		vm := NewRecordViewModel()
		return vm, NewRecordView(vm)
	case decode.KindImage:
		vm := NewImageViewModel()
		return vm, NewImageView(vm)
	default:
		vm := NewBinaryViewModel()
		return vm, NewBinaryView(vm)
	}
}

func (s *Selector) rerender() {
	if !s.hasView {
		return
	}
	s.vp.SetContent(s.view.Render(s.vp.Width()))
}

// SetSize resizes the pane and reflows the current content.
func (s *Selector) SetSize(width, height int) {
	s.vp.SetSize(width, height)
	s.rerender()
}

// HasContent reports whether a decode has been committed for the current
// selection.
func (s *Selector) HasContent() bool { return s.hasView }

// Content returns the last committed content for the current selection.
func (s *Selector) Content() decode.Content { return s.current }

// CurrentView returns the clipped, scroll-adjusted rendering of the
// active pair. This is the selector's only render surface.
func (s *Selector) CurrentView() string {
	return s.vp.View()
}

// Scroll input, routed in by the shell.

func (s *Selector) LineUp(n int)        { s.vp.LineUp(n) }
func (s *Selector) LineDown(n int)      { s.vp.LineDown(n) }
func (s *Selector) PageUp()             { s.vp.PageUp() }
func (s *Selector) PageDown()           { s.vp.PageDown() }
func (s *Selector) GotoTop()            { s.vp.GotoTop() }
func (s *Selector) GotoBottom()         { s.vp.GotoBottom() }
func (s *Selector) ScrollPos() Position { return s.vp.Position() }

// Close stops the decode worker. Safe to call more than once.
func (s *Selector) Close() {
	s.once.Do(func() { close(s.done) })
}
