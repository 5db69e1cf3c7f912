package tui

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"soundpills/internal/audio"
	"soundpills/internal/content"
	"soundpills/internal/logging"
	"soundpills/internal/session"
	"soundpills/internal/spawn"
)

type fakeHost struct {
	snap     content.Snapshot
	live     []spawn.Entity
	expanded map[string]bool
	resumed  int
	pointers [][2]float64
	state    audio.State
}

func newFakeHost(live ...spawn.Entity) *fakeHost {
	return &fakeHost{
		snap:     content.Snapshot{Title: "Board"},
		live:     live,
		expanded: map[string]bool{},
		state:    audio.StateWaiting,
	}
}

func (h *fakeHost) Snapshot() content.Snapshot { return h.snap }
func (h *fakeHost) Live() []spawn.Entity       { return h.live }
func (h *fakeHost) Expanded(id string) bool    { return h.expanded[id] }
func (h *fakeHost) Resume()                    { h.resumed++; h.state = audio.StateRunning }

func (h *fakeHost) Toggle(id string) (bool, bool) {
	for _, e := range h.live {
		if e.ID == id && e.Expandable() {
			h.expanded[id] = !h.expanded[id]
			return h.expanded[id], true
		}
	}
	return false, false
}

func (h *fakeHost) Pointer(x, y float64) bool {
	h.pointers = append(h.pointers, [2]float64{x, y})
	return true
}

func (h *fakeHost) Stats() session.Stats {
	return session.Stats{AudioState: h.state, Live: len(h.live)}
}

func pill(id, text string, x, y float64, item content.Item) spawn.Entity {
	item.Text = text
	return spawn.Entity{ID: id, Kind: spawn.KindPill, Item: &item, Position: spawn.Position{X: x, Y: y}}
}

func sized(m tea.Model, w, h int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func TestWindowSizeMeasuresCanvas(t *testing.T) {
	canvas := &spawn.ResizableCanvas{}
	m := New(newFakeHost(), Options{Canvas: canvas})
	if _, _, ok := canvas.Bounds(); ok {
		t.Fatal("canvas must not be ready before the first size message")
	}
	if !strings.Contains(m.View(), "measuring") {
		t.Fatal("expected placeholder before sizing")
	}
	sized(m, 80, 24)
	w, h, ok := canvas.Bounds()
	if !ok || w != 80*cellWidth || h != 20*cellHeight {
		t.Fatalf("unexpected bounds %v x %v (ok=%v)", w, h, ok)
	}
}

func TestViewRendersPillsGlyphsAndContent(t *testing.T) {
	host := newFakeHost(
		pill("0-aaaaa", "Alpha", 0, 0, content.Item{Section: "two", URL: "https://example.com", ImageURL: "a.png"}),
		pill("1-bbbbb", "Loose", 0, 32, content.Item{Section: "loose", ImageURL: "b.png"}),
		spawn.Entity{ID: "2-ccccc", Kind: spawn.KindGlyph, Glyph: "🎈", Position: spawn.Position{X: 400, Y: 64}},
	)
	host.snap.InfoCards = []content.InfoCard{{Title: "Hours", Body: "9-5"}}
	host.snap.NewsItems = []content.NewsItem{{Text: "Headline", URL: "https://news"}}

	view := sized(New(host, Options{}), 100, 12).View()
	for _, want := range []string{"Board", "Hours: 9-5", "Headline ↗", "▣ Alpha ↗", "🎈", "press any key"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if strings.Contains(view, "▣ Loose") {
		t.Fatal("loose section must not show the image marker")
	}
}

func TestClickTogglesExpandablePill(t *testing.T) {
	host := newFakeHost(pill("0-aaaaa", "Beta", 80, 0, content.Item{Section: "one", ExpandedText: "More about beta"}))
	m := sized(New(host, Options{}), 80, 10)

	if !strings.Contains(m.View(), "Beta +") {
		t.Fatalf("expected collapsed marker:\n%s", m.View())
	}
	click := tea.MouseMsg{X: 11, Y: headerLines, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	next, _ := m.Update(click)
	m = next.(Model)

	if host.resumed != 1 {
		t.Fatalf("expected first click to arm audio, got %d resumes", host.resumed)
	}
	if !host.expanded["0-aaaaa"] {
		t.Fatal("expected click to expand pill")
	}
	if !strings.Contains(m.View(), "Beta: More about beta") {
		t.Fatalf("expected expanded detail:\n%s", m.View())
	}

	miss := tea.MouseMsg{X: 70, Y: headerLines + 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	next, _ = m.Update(miss)
	m = next.(Model)
	if !host.expanded["0-aaaaa"] || host.resumed != 1 {
		t.Fatal("click on empty canvas must not toggle or re-arm")
	}
}

func TestKeysArmAndQuit(t *testing.T) {
	host := newFakeHost()
	m := sized(New(host, Options{}), 40, 10)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if cmd != nil || host.resumed != 1 {
		t.Fatalf("expected key to arm audio without a command (resumed=%d)", host.resumed)
	}
	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestPointerMotionForwardedWhenEnabled(t *testing.T) {
	host := newFakeHost()
	motion := tea.MouseMsg{X: 3, Y: headerLines + 1, Action: tea.MouseActionMotion}

	m := sized(New(host, Options{}), 40, 10)
	m.Update(motion)
	if len(host.pointers) != 0 {
		t.Fatal("pointer spawning disabled; motion must be ignored")
	}

	m = sized(New(host, Options{PointerSpawn: true}), 40, 10)
	m.Update(motion)
	if len(host.pointers) != 1 {
		t.Fatalf("expected one pointer event, got %d", len(host.pointers))
	}
	if got := host.pointers[0]; got != [2]float64{3*cellWidth + cellWidth/2, cellHeight + cellHeight/2} {
		t.Fatalf("unexpected pointer position %v", got)
	}
}

func TestFrameTickReschedules(t *testing.T) {
	m := New(newFakeHost(), Options{Frame: time.Millisecond})
	if m.opts.Frame != minRedraw {
		t.Fatalf("expected redraw interval clamped to %v, got %v", minRedraw, m.opts.Frame)
	}
	if _, cmd := m.Update(frameMsg(time.Now())); cmd == nil {
		t.Fatal("expected next frame to be scheduled")
	}
}

func TestStatusLineShowsLatestWarning(t *testing.T) {
	status := &StatusLine{}
	logger := logging.TeeLogger(logging.NewNop(), status.Handler())
	logger.Info("ignored")
	logging.WarnWithContext(logger.With(slog.String("component", "sampler")), "audio capture unavailable", "audio_acquire_failed",
		logging.String(logging.FieldImpact, "sound-reactive spawning disabled for this session"),
	)

	msg, _ := status.Last()
	if msg != "audio capture unavailable (sound-reactive spawning disabled for this session)" {
		t.Fatalf("unexpected status %q", msg)
	}

	view := sized(New(newFakeHost(), Options{Status: status}), 200, 8).View()
	if !strings.Contains(view, "audio capture unavailable") {
		t.Fatalf("expected warning in footer:\n%s", view)
	}
}
