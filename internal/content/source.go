package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"soundpills/internal/config"
	"soundpills/internal/faults"
	"soundpills/internal/logging"
)

// maxBodyBytes bounds HTTP snapshot bodies.
const maxBodyBytes = 8 << 20

// Source fetches a content snapshot.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
	// Describe names the source for logs and CLI output.
	Describe() string
}

// NewSource builds the source selected by cfg. With neither a path nor a URL
// configured it returns a source yielding an empty snapshot.
func NewSource(cfg *config.Config) Source {
	switch {
	case cfg.Content.Path != "":
		return &FileSource{Path: cfg.Content.Path}
	case cfg.Content.URL != "":
		return &HTTPSource{URL: cfg.Content.URL, Timeout: cfg.ContentTimeout()}
	default:
		return StaticSource{Snapshot: Snapshot{Title: "soundpills"}}
	}
}

// Load fetches from src and never fails: on error the returned snapshot is
// empty, titled "Error", and carries the wrapped error.
func Load(ctx context.Context, src Source, logger *slog.Logger) Snapshot {
	logger = logging.NewComponentLogger(logger, "content")
	snap, err := src.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrContentLoadFailed) {
			err = faults.Wrap(ErrContentLoadFailed, "content", "fetch", src.Describe(), err)
		}
		attrs := append(logging.FailureAttrs(err), logging.String("source", src.Describe()))
		logging.WarnWithContext(logger, "content snapshot unavailable", "content_load_failed", attrs...)
		return Failed(err)
	}
	logger.Info("content snapshot loaded",
		logging.String("source", src.Describe()),
		logging.String("title", snap.Title),
		logging.Int("items", len(snap.Items)),
		logging.Int("info_cards", len(snap.InfoCards)),
		logging.Int("news_items", len(snap.NewsItems)),
	)
	return snap
}

// StaticSource returns a fixed snapshot.
type StaticSource struct {
	Snapshot Snapshot
}

func (s StaticSource) Fetch(context.Context) (Snapshot, error) { return s.Snapshot, nil }

func (s StaticSource) Describe() string { return "static" }

// FileSource reads a snapshot document from disk. The format follows the file
// extension unless Format is set.
type FileSource struct {
	Path   string
	Format Format
}

func (s *FileSource) Describe() string { return s.Path }

func (s *FileSource) Fetch(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "read file", s.Path, err)
	}
	format := s.Format
	if format == "" {
		format = FormatFromName(s.Path)
	}
	snap, err := Decode(data, format)
	if err != nil {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "decode file", s.Path, err)
	}
	return snap, nil
}

// HTTPSource fetches a snapshot document with a single GET request.
type HTTPSource struct {
	URL     string
	Timeout time.Duration
	// Client defaults to a client honoring Timeout.
	Client *http.Client
}

func (s *HTTPSource) Describe() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) (Snapshot, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: s.Timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "build request", s.URL, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, application/toml;q=0.9, */*;q=0.5")
	resp, err := client.Do(req)
	if err != nil {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "request", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "request", fmt.Sprintf("%s returned %s", s.URL, resp.Status), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "read body", s.URL, err)
	}
	snap, err := Decode(data, formatFromResponse(resp, s.URL))
	if err != nil {
		return Snapshot{}, faults.Wrap(ErrContentLoadFailed, "content", "decode body", s.URL, err)
	}
	return snap, nil
}

func formatFromResponse(resp *http.Response, rawURL string) Format {
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		switch {
		case strings.Contains(mediaType, "toml"):
			return FormatTOML
		case strings.Contains(mediaType, "json"):
			return FormatJSON
		case strings.Contains(mediaType, "yaml"):
			return FormatYAML
		}
	}
	return FormatFromName(rawURL)
}
