package spawn

import (
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"soundpills/internal/content"
)

// Kind distinguishes content pills from decorative glyphs.
type Kind string

const (
	KindPill  Kind = "pill"
	KindGlyph Kind = "glyph"
)

// Position is a point on the canvas in canvas units.
type Position struct {
	X float64
	Y float64
}

// Entity is one spawned visual. It is never mutated after creation.
type Entity struct {
	ID   string
	Kind Kind
	// Item is set for pills.
	Item *content.Item
	// Glyph is set for glyphs.
	Glyph     string
	Position  Position
	CreatedAt time.Time
	// Loudness is the RMS that triggered the spawn; zero for pointer spawns.
	Loudness float64
	// Lifetime overrides the store lifetime when non-zero.
	Lifetime time.Duration
}

// Label returns the text a renderer shows for the entity.
func (e Entity) Label() string {
	if e.Kind == KindPill && e.Item != nil {
		return e.Item.Text
	}
	return e.Glyph
}

// Expandable reports whether the entity is a pill with detail content.
func (e Entity) Expandable() bool {
	return e.Kind == KindPill && e.Item != nil && e.Item.HasDetail()
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idSuffixLength is the length of the random base36 ID suffix.
const idSuffixLength = 5

// spawnIndex numbers entities across the whole process so IDs never repeat.
var spawnIndex atomic.Uint64

// newID returns "<spawn index>-<5 base36 chars>".
func newID(rng *rand.Rand) string {
	idx := spawnIndex.Add(1) - 1
	suffix := make([]byte, idSuffixLength)
	for i := range suffix {
		suffix[i] = idAlphabet[rng.IntN(len(idAlphabet))]
	}
	return strconv.FormatUint(idx, 10) + "-" + string(suffix)
}

// NewRand returns a PCG-backed source. A zero seed seeds from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
