package content

import (
	"bytes"
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Format names a snapshot document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromName picks a format from a file name or URL path. JSON and
// unknown extensions decode as YAML, which accepts JSON documents.
func FormatFromName(name string) Format {
	lower := strings.ToLower(name)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	switch {
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	default:
		return FormatYAML
	}
}

type document struct {
	Title     string        `yaml:"title" toml:"title"`
	Blocks    []rawBlock    `yaml:"blocks" toml:"blocks"`
	InfoCards []rawInfoCard `yaml:"info_cards" toml:"info_cards"`
	News      []rawNewsItem `yaml:"news" toml:"news"`
}

type rawBlock struct {
	Section       string   `yaml:"section" toml:"section"`
	Text          string   `yaml:"text" toml:"text"`
	URL           string   `yaml:"url" toml:"url"`
	Image         string   `yaml:"image" toml:"image"`
	ImageTitle    string   `yaml:"image_title" toml:"image_title"`
	ExpandedText  string   `yaml:"expanded_text" toml:"expanded_text"`
	Description   string   `yaml:"description" toml:"description"`
	ExpandedImage string   `yaml:"expanded_image" toml:"expanded_image"`
	PDF           string   `yaml:"pdf" toml:"pdf"`
	PDFFileName   string   `yaml:"pdf_file_name" toml:"pdf_file_name"`
	Color         string   `yaml:"color" toml:"color"`
	Classes       any      `yaml:"classes" toml:"classes"`
	ClassTokens   []string `yaml:"class_tokens" toml:"class_tokens"`
	Order         *int     `yaml:"order" toml:"order"`
}

type rawInfoCard struct {
	Title string `yaml:"title" toml:"title"`
	Body  string `yaml:"body" toml:"body"`
	Order *int   `yaml:"order" toml:"order"`
}

type rawNewsItem struct {
	Text  string `yaml:"text" toml:"text"`
	Title string `yaml:"title" toml:"title"`
	URL   string `yaml:"url" toml:"url"`
	Order *int   `yaml:"order" toml:"order"`
}

// Decode parses and normalizes a snapshot document.
func Decode(data []byte, format Format) (Snapshot, error) {
	var doc document
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return Snapshot{}, fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML, FormatJSON, "":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", cmp.Or(format, FormatYAML), err)
		}
	default:
		return Snapshot{}, fmt.Errorf("unsupported content format %q", format)
	}
	return doc.snapshot(), nil
}

func (d document) snapshot() Snapshot {
	snap := Snapshot{Title: cleanText(d.Title)}
	if snap.Title == "" {
		snap.Title = "—"
	}

	snap.Items = make([]Item, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		snap.Items = append(snap.Items, b.item())
	}
	slices.SortStableFunc(snap.Items, func(a, b Item) int { return cmp.Compare(a.Order, b.Order) })

	snap.InfoCards = make([]InfoCard, 0, len(d.InfoCards))
	for _, c := range d.InfoCards {
		snap.InfoCards = append(snap.InfoCards, InfoCard{
			Title: cleanText(c.Title),
			Body:  cleanText(c.Body),
			Order: orderOrDefault(c.Order),
		})
	}
	slices.SortStableFunc(snap.InfoCards, func(a, b InfoCard) int { return cmp.Compare(a.Order, b.Order) })
	if len(snap.InfoCards) > MaxInfoCards {
		snap.InfoCards = snap.InfoCards[:MaxInfoCards]
	}

	snap.NewsItems = make([]NewsItem, 0, len(d.News))
	for _, n := range d.News {
		text := cleanText(cmp.Or(n.Text, n.Title))
		if text == "" {
			continue
		}
		snap.NewsItems = append(snap.NewsItems, NewsItem{
			Text:  text,
			URL:   NormalizeURL(n.URL),
			Order: orderOrDefault(n.Order),
		})
	}
	slices.SortStableFunc(snap.NewsItems, func(a, b NewsItem) int { return cmp.Compare(a.Order, b.Order) })
	return snap
}

func (b rawBlock) item() Item {
	text := cleanText(b.Text)
	return Item{
		Section:       strings.ToLower(strings.TrimSpace(b.Section)),
		Text:          text,
		URL:           NormalizeURL(b.URL),
		ImageURL:      NormalizeURL(b.Image),
		ImageAlt:      cmp.Or(cleanText(b.ImageTitle), text),
		ExpandedText:  cmp.Or(cleanText(b.ExpandedText), cleanText(b.Description)),
		ExpandedImage: NormalizeURL(b.ExpandedImage),
		PDFURL:        NormalizeURL(b.PDF),
		PDFFileName:   strings.TrimSpace(b.PDFFileName),
		BgColor:       cmp.Or(strings.TrimSpace(b.Color), "#eee"),
		ClassTokens:   classTokens(b.Classes, b.ClassTokens),
		Order:         orderOrDefault(b.Order),
	}
}

var classSeparator = regexp.MustCompile(`[,\s]+`)

// classTokens accepts a list, a comma or whitespace separated string, or the
// class_tokens fallback list.
func classTokens(classes any, fallback []string) []string {
	var raw []string
	switch v := classes.(type) {
	case string:
		raw = classSeparator.Split(v, -1)
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	default:
		raw = fallback
	}
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if token == "" || slices.Contains(tokens, token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func orderOrDefault(order *int) int {
	if order == nil {
		return DefaultOrder
	}
	return *order
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
