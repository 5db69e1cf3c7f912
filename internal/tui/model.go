package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"soundpills/internal/audio"
	"soundpills/internal/content"
	"soundpills/internal/session"
	"soundpills/internal/spawn"
)

// Canvas coordinates are virtual pixels; one terminal cell covers
// cellWidth x cellHeight of them.
const (
	cellWidth  = 8
	cellHeight = 16
)

const (
	headerLines = 2
	footerLines = 2
	// minRedraw caps the redraw rate independently of the sampling rate.
	minRedraw = 33 * time.Millisecond
	// detailWidth bounds expanded detail text in cells.
	detailWidth = 48
)

// Host is the session surface the model drives.
type Host interface {
	Snapshot() content.Snapshot
	Live() []spawn.Entity
	Expanded(id string) bool
	Toggle(id string) (expanded, ok bool)
	Resume()
	Pointer(x, y float64) bool
	Stats() session.Stats
}

// Options configure the model.
type Options struct {
	// Frame is the redraw interval.
	Frame time.Duration
	// Canvas receives the terminal size in virtual pixels.
	Canvas *spawn.ResizableCanvas
	Status *StatusLine
	// PointerSpawn forwards mouse motion to the host.
	PointerSpawn bool
}

type frameMsg time.Time

// hit is the clickable span of a rendered entity.
type hit struct {
	id       string
	row      int
	from, to int
}

// Model is the bubbletea model for a live session.
type Model struct {
	host   Host
	opts   Options
	styles Styles

	width, height int
	armed         bool
}

// New returns a model for host.
func New(host Host, opts Options) Model {
	if opts.Frame < minRedraw {
		opts.Frame = minRedraw
	}
	if opts.Canvas == nil {
		opts.Canvas = &spawn.ResizableCanvas{}
	}
	if opts.Status == nil {
		opts.Status = &StatusLine{}
	}
	return Model{host: host, opts: opts, styles: NewStyles()}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.opts.Canvas.Resize(float64(m.width*cellWidth), float64(m.canvasRows()*cellHeight))
		return m, nil
	case frameMsg:
		return m, m.tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		m.arm()
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	}
	return m, nil
}

func (m *Model) arm() {
	if !m.armed {
		m.host.Resume()
		m.armed = true
	}
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.arm()
		if id, ok := m.hitAt(msg.X, msg.Y-headerLines); ok {
			m.host.Toggle(id)
		}
	case msg.Action == tea.MouseActionMotion && m.opts.PointerSpawn:
		row := msg.Y - headerLines
		if row >= 0 && row < m.canvasRows() {
			m.host.Pointer(float64(msg.X*cellWidth+cellWidth/2), float64(row*cellHeight+cellHeight/2))
		}
	}
	return m
}

// hitAt maps a cell to the entity drawn there, preferring the later one.
func (m Model) hitAt(col, row int) (string, bool) {
	_, hits := m.renderCanvas()
	for i := len(hits) - 1; i >= 0; i-- {
		h := hits[i]
		if h.row == row && col >= h.from && col < h.to {
			return h.id, true
		}
	}
	return "", false
}

func (m Model) canvasRows() int {
	return max(m.height-headerLines-footerLines, 0)
}

// View renders header, canvas, and footer.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "measuring terminal..."
	}
	snap := m.host.Snapshot()
	canvas, _ := m.renderCanvas()

	var b strings.Builder
	b.WriteString(m.renderHeader(snap))
	b.WriteString("\n")
	b.WriteString(canvas)
	b.WriteString(m.renderFooter(snap))
	return b.String()
}

func (m Model) renderHeader(snap content.Snapshot) string {
	title := m.styles.Header.Render(snap.Title)
	cards := make([]string, 0, len(snap.InfoCards))
	for _, card := range snap.InfoCards {
		text := card.Title
		if card.Body != "" {
			text += ": " + card.Body
		}
		cards = append(cards, text)
	}
	line2 := m.styles.Card.Render(truncateCells(strings.Join(cards, " · "), m.width-2))
	return title + "\n" + line2
}

func (m Model) renderFooter(snap content.Snapshot) string {
	news := make([]string, 0, len(snap.NewsItems))
	for _, item := range snap.NewsItems {
		text := item.Text
		if item.URL != "" {
			text += " ↗"
		}
		news = append(news, text)
	}
	newsLine := m.styles.Footer.Render(truncateCells(strings.Join(news, " · "), m.width-2))

	stats := m.host.Stats()
	status := fmt.Sprintf("audio %s · live %d · spawned %d", stats.AudioState, stats.Live, stats.Spawned)
	if !m.armed && stats.AudioState == audio.StateWaiting {
		status += " · press any key to start listening"
	}
	line := truncateCells(status, m.width-2)
	if warning, _ := m.opts.Status.Last(); warning != "" {
		if room := m.width - 2 - lipgloss.Width(line) - 3; room > 0 {
			line += " · " + m.styles.Warning.Render(truncateCells(warning, room))
		}
	}
	return newsLine + "\n" + m.styles.Footer.Render(line)
}

type placed struct {
	id    string
	text  string
	col   int
	width int
}

func (m Model) renderCanvas() (string, []hit) {
	rows := m.canvasRows()
	if rows == 0 {
		return "", nil
	}
	grid := make([][]placed, rows)
	for _, e := range m.host.Live() {
		text := m.renderEntity(e)
		width := lipgloss.Width(text)
		if width == 0 || width > m.width {
			continue
		}
		col := clamp(int(e.Position.X)/cellWidth, 0, m.width-width)
		row := clamp(int(e.Position.Y)/cellHeight, 0, rows-1)
		grid[row] = append(grid[row], placed{id: e.ID, text: text, col: col, width: width})
	}

	var hits []hit
	var b strings.Builder
	for row, line := range grid {
		slices.SortStableFunc(line, func(a, b placed) int { return a.col - b.col })
		cursor := 0
		for _, p := range line {
			col := max(p.col, cursor)
			if col+p.width > m.width {
				continue
			}
			b.WriteString(strings.Repeat(" ", col-cursor))
			b.WriteString(p.text)
			hits = append(hits, hit{id: p.id, row: row, from: col, to: col + p.width})
			cursor = col + p.width
		}
		b.WriteString("\n")
	}
	return b.String(), hits
}

func (m Model) renderEntity(e spawn.Entity) string {
	if e.Kind == spawn.KindGlyph || e.Item == nil {
		return m.styles.Glyph.Render(e.Glyph)
	}
	item := e.Item
	label := item.Text
	if item.ShowsIcon() {
		label = "▣ " + label
	}
	if item.Link() != "" {
		label += " ↗"
	}
	if item.HasDetail() {
		if m.host.Expanded(e.ID) {
			label += ": " + truncateCells(detail(item), detailWidth)
			return m.styles.pillStyle(item).Inherit(m.styles.Expanded).Render(label)
		}
		label += " +"
	}
	return m.styles.pillStyle(item).Render(label)
}

func detail(item *content.Item) string {
	if item.ExpandedText != "" {
		return strings.Join(strings.Fields(item.ExpandedText), " ")
	}
	return "[image " + item.ExpandedImage + "]"
}

func truncateCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
