package deck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const maxDeckBytes = 8 << 20

// Fetched describes a deck downloaded into the deck directory.
type Fetched struct {
	Book   string
	Path   string
	Cached bool
}

// Fetch downloads a deck from rawURL into dir. An existing deck with the same
// book id is kept unless force is set.
func Fetch(ctx context.Context, rawURL, dir string, force bool) (Fetched, error) {
	if dir == "" {
		return Fetched{}, fmt.Errorf("deck directory is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Fetched{}, fmt.Errorf("invalid deck url %q", rawURL)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Fetched{}, fmt.Errorf("failed to create deck dir: %w", err)
	}

	resp, err := httpRequest(ctx, rawURL)
	if err != nil {
		return Fetched{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Fetched{}, fmt.Errorf("unexpected deck status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(dir, "deck-*.toml")
	if err != nil {
		return Fetched{}, fmt.Errorf("failed to create temp deck: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, maxDeckBytes+1))
	if err != nil {
		return Fetched{}, fmt.Errorf("failed to download deck: %w", err)
	}
	if n > maxDeckBytes {
		return Fetched{}, fmt.Errorf("deck is larger than %d bytes", maxDeckBytes)
	}
	if err := tmpFile.Close(); err != nil {
		return Fetched{}, fmt.Errorf("failed to close temp deck: %w", err)
	}

	var d Deck
	if _, err := toml.DecodeFile(tmpPath, &d); err != nil {
		return Fetched{}, fmt.Errorf("failed to decode deck: %w", err)
	}
	if d.Book == "" {
		d.Book = strings.TrimSuffix(path.Base(parsed.Path), path.Ext(parsed.Path))
	}
	if d.Book == "" || d.Book == "." || d.Book == "/" || strings.ContainsAny(d.Book, `/\`) {
		return Fetched{}, fmt.Errorf("deck has no usable book id")
	}
	if err := d.Validate(); err != nil {
		return Fetched{}, err
	}

	destPath := filepath.Join(dir, d.Book+".toml")
	if !force {
		if _, err := os.Stat(destPath); err == nil {
			return Fetched{Book: d.Book, Path: destPath, Cached: true}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return Fetched{}, fmt.Errorf("failed to stat deck: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return Fetched{}, fmt.Errorf("failed to move deck into place: %w", err)
	}
	return Fetched{Book: d.Book, Path: destPath}, nil
}

func httpRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
