package content

import (
	"regexp"
	"slices"
	"strings"

	"soundpills/internal/faults"
)

// ErrContentLoadFailed marks a snapshot that could not be fetched or decoded.
var ErrContentLoadFailed = faults.ErrContentLoadFailed

// DefaultOrder is assigned to entries without an explicit order.
const DefaultOrder = 9999

// MaxInfoCards caps the info cards kept in a snapshot.
const MaxInfoCards = 3

const (
	// SectionLoose items render without their icon.
	SectionLoose = "loose"
	// SectionLinked items render as links to their URL.
	SectionLinked = "two"
)

// Item is one content entry eligible to become a pill.
type Item struct {
	Section       string
	Text          string
	URL           string
	ImageURL      string
	ImageAlt      string
	ExpandedText  string
	ExpandedImage string
	PDFURL        string
	PDFFileName   string
	BgColor       string
	ClassTokens   []string
	Order         int
}

// HasDetail reports whether the item carries expandable detail content.
func (i Item) HasDetail() bool {
	return i.ExpandedText != "" || i.ExpandedImage != ""
}

// ShowsIcon reports whether renderers should draw the item's image marker.
func (i Item) ShowsIcon() bool {
	return i.ImageURL != "" && i.Section != SectionLoose
}

// Link returns the navigable URL for linked-section items, or "".
func (i Item) Link() string {
	if i.Section != SectionLinked {
		return ""
	}
	return i.URL
}

// HasClass reports whether token is one of the item's class tokens.
func (i Item) HasClass(token string) bool {
	return slices.Contains(i.ClassTokens, token)
}

// IsWhite reports whether the background color is a spelling of white.
func (i Item) IsWhite() bool {
	switch strings.ToLower(strings.ReplaceAll(i.BgColor, " ", "")) {
	case "#fff", "#ffffff", "white", "rgb(255,255,255)":
		return true
	}
	return false
}

// InfoCard is a short titled note shown alongside the canvas.
type InfoCard struct {
	Title string
	Body  string
	Order int
}

// NewsItem is a ticker entry.
type NewsItem struct {
	Text  string
	URL   string
	Order int
}

// Snapshot is the loaded content. It is never mutated after loading.
type Snapshot struct {
	Title     string
	Items     []Item
	InfoCards []InfoCard
	NewsItems []NewsItem
	// Err is set when loading failed; the lists are then empty.
	Err error
}

// Usable returns the items whose section is in sections. An empty filter
// keeps every item. The returned slice preserves snapshot order, which is
// already stable-sorted by Order at decode, so the scheduler's pill
// round-robin follows Order rather than the fetched document order.
func (s Snapshot) Usable(sections []string) []Item {
	if len(sections) == 0 {
		return slices.Clone(s.Items)
	}
	out := make([]Item, 0, len(s.Items))
	for _, item := range s.Items {
		if slices.Contains(sections, item.Section) {
			out = append(out, item)
		}
	}
	return out
}

// Failed builds the snapshot returned when loading fails.
func Failed(err error) Snapshot {
	return Snapshot{Title: "Error", Err: err}
}

var urlSchemePattern = regexp.MustCompile(`(?i)^(https?:|mailto:|tel:)`)

// NormalizeURL expands protocol-relative and bare www. URLs to https.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case urlSchemePattern.MatchString(u):
		return u
	case strings.HasPrefix(u, "www."):
		return "https://" + u
	default:
		return u
	}
}

// IsHTTP reports whether u uses an http or https scheme.
func IsHTTP(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http:") || strings.HasPrefix(lower, "https:")
}
