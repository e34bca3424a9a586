package viz

import (
	"strings"
	"testing"
	"time"

	"github.com/mcolombo/buslens/internal/decode"
)

func newTestSelector(t *testing.T, wrapWidth int) *Selector {
	t.Helper()
	s := NewSelector(decode.NewRegistry(), wrapWidth)
	s.SetSize(80, 10)
	t.Cleanup(s.Close)
	return s
}

// ingest pushes a payload through the worker and commits the result, the
// way the UI loop does.
func ingest(t *testing.T, s *Selector, raw decode.Raw) bool {
	t.Helper()
	s.Ingest(raw)
	select {
	case u := <-s.Results():
		return s.Apply(u)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode result")
		return false
	}
}

func TestSelector_PlainTextEndToEnd(t *testing.T) {
	s := newTestSelector(t, 50)
	s.Select("chat.room")

	if !ingest(t, s, decode.Raw{Topic: "chat.room", Encoding: "text", Body: []byte("hello world")}) {
		t.Fatal("Apply rejected a current-generation result")
	}

	if s.Content().Kind != decode.KindText {
		t.Errorf("Kind = %v, want text", s.Content().Kind)
	}
	vm, ok := s.vm.(*TextViewModel)
	if !ok {
		t.Fatalf("active view model is %T, want *TextViewModel", s.vm)
	}
	if vm.Message() != "hello world" {
		t.Errorf("Message = %q, want %q", vm.Message(), "hello world")
	}
	if s.ScrollPos() != AtTop {
		t.Errorf("ScrollPos = %v, want AtTop", s.ScrollPos())
	}
	if !strings.Contains(s.CurrentView(), "hello world") {
		t.Errorf("CurrentView missing message:\n%s", s.CurrentView())
	}
}

func TestSelector_UnknownEncodingFallback(t *testing.T) {
	s := newTestSelector(t, 0)
	s.Select("mystery")

	ingest(t, s, decode.Raw{Topic: "mystery", Encoding: "99", Body: []byte{0xFF, 0x00}})

	if s.Content().Kind != decode.KindBinary {
		t.Fatalf("Kind = %v, want binary fallback", s.Content().Kind)
	}
	if !strings.Contains(s.CurrentView(), "unknown encoding") {
		t.Errorf("CurrentView missing diagnostic:\n%s", s.CurrentView())
	}
}

func TestSelector_StaleResultDiscarded(t *testing.T) {
	s := newTestSelector(t, 0)
	s.Select("a")

	s.Ingest(decode.Raw{Topic: "a", Encoding: "text", Body: []byte("for a")})
	u := <-s.Results()

	// Selection moved on before the result was applied.
	s.Select("b")
	if s.Apply(u) {
		t.Error("Apply accepted a result for a superseded selection")
	}
	if s.HasContent() {
		t.Error("stale result must not populate the new selection")
	}
}

func TestSelector_IgnoresOtherTopics(t *testing.T) {
	s := newTestSelector(t, 0)
	s.Select("a")

	s.Ingest(decode.Raw{Topic: "b", Encoding: "text", Body: []byte("not mine")})

	select {
	case u := <-s.Results():
		t.Fatalf("unexpected decode result for foreign topic: %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSelector_VariantChangeRebuildsPair(t *testing.T) {
	s := newTestSelector(t, 0)
	s.Select("mixed")

	ingest(t, s, decode.Raw{Topic: "mixed", Encoding: "text", Body: []byte("first")})
	if _, ok := s.vm.(*TextViewModel); !ok {
		t.Fatalf("active pair is %T, want text", s.vm)
	}

	ingest(t, s, decode.Raw{Topic: "mixed", Encoding: "json", Body: []byte(`{"k":"v"}`)})
	if _, ok := s.vm.(*RecordViewModel); !ok {
		t.Fatalf("active pair is %T, want record after variant change", s.vm)
	}
	if s.Content().Kind != decode.KindRecord {
		t.Errorf("Kind = %v, want record", s.Content().Kind)
	}
}

func TestSelector_SelectionSwitchResetsScroll(t *testing.T) {
	s := newTestSelector(t, 0)
	s.SetSize(80, 5)
	s.Select("a")

	long := strings.Repeat("alpha line\n", 30)
	ingest(t, s, decode.Raw{Topic: "a", Encoding: "text", Body: []byte(long)})
	s.GotoBottom()

	// Three live updates while tailing: offset follows the bottom.
	for i := 0; i < 3; i++ {
		long += "more\n"
		ingest(t, s, decode.Raw{Topic: "a", Encoding: "text", Body: []byte(long)})
		if s.ScrollPos() != AtBottom {
			t.Fatalf("update %d: ScrollPos = %v, want AtBottom (sticky)", i, s.ScrollPos())
		}
	}

	// Switching away resets to the top for the new target.
	s.Select("b")
	if s.ScrollPos() != AtTop {
		t.Errorf("ScrollPos = %v, want AtTop after selection switch", s.ScrollPos())
	}
	if s.HasContent() {
		t.Error("new selection must start without the old pair's content")
	}

	// Re-selecting a discarded target starts at the top again.
	s.Select("a")
	if s.ScrollPos() != AtTop {
		t.Errorf("ScrollPos = %v, want AtTop on re-select (pairs are discarded)", s.ScrollPos())
	}
}

func TestSelector_ReselectSameTopicKeepsScroll(t *testing.T) {
	s := newTestSelector(t, 0)
	s.SetSize(80, 5)
	s.Select("a")

	ingest(t, s, decode.Raw{Topic: "a", Encoding: "text", Body: []byte(strings.Repeat("x\n", 30))})
	s.LineDown(7)

	s.Select("a")
	if s.vp.Offset() != 7 {
		t.Errorf("offset = %d, want 7 preserved for same-topic select", s.vp.Offset())
	}
}

func TestSelector_LatestWinsSupersedes(t *testing.T) {
	s := newTestSelector(t, 0)
	s.Select("fast")

	// Queue more payloads than the worker can have picked up; the pending
	// slot keeps only the newest.
	for i := 0; i < 20; i++ {
		s.Ingest(decode.Raw{Topic: "fast", Encoding: "text", Body: []byte{byte('a' + i%26)}})
	}

	// Drain whatever was decoded; at most a handful of results can exist,
	// never all 20.
	got := 0
	for {
		select {
		case u := <-s.Results():
			s.Apply(u)
			got++
		case <-time.After(200 * time.Millisecond):
			if got >= 20 {
				t.Errorf("received %d results; queue should have dropped superseded payloads", got)
			}
			if !s.HasContent() {
				t.Error("latest payload should have been committed")
			}
			return
		}
	}
}

func TestSelector_CurrentViewBeforeAnyDecode(t *testing.T) {
	s := newTestSelector(t, 0)
	s.SetSize(40, 4)
	s.Select("empty")

	out := s.CurrentView()
	if lines := strings.Split(out, "\n"); len(lines) != 4 {
		t.Errorf("empty view has %d lines, want padded to 4", len(lines))
	}
}
