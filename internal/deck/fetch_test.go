package deck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const remoteDeck = `
title = "Remote"

[[chapter]]
id = "1"

[[chapter.word]]
hanzi = "你好"
pinyin = "nǐ hǎo"
english = "hello"
`

func TestFetchStoresDeckByBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/decks/hsk2.toml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(remoteDeck))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	got, err := Fetch(context.Background(), srv.URL+"/decks/hsk2.toml", dir, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Book != "hsk2" || got.Cached || got.Path != filepath.Join(dir, "hsk2.toml") {
		t.Fatalf("unexpected result: %+v", got)
	}
	d, err := Load(got.Path)
	if err != nil {
		t.Fatalf("load fetched deck: %v", err)
	}
	if d.Title != "Remote" || len(d.Chapters[0].Words) != 1 {
		t.Fatalf("unexpected deck: %+v", d)
	}

	again, err := Fetch(context.Background(), srv.URL+"/decks/hsk2.toml", dir, false)
	if err != nil {
		t.Fatalf("fetch again: %v", err)
	}
	if !again.Cached {
		t.Fatalf("expected cached result")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files removed, got %d entries", len(entries))
	}
}

func TestFetchRejectsBadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty.toml" {
			_, _ = w.Write([]byte(`title = "nothing"`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if _, err := Fetch(context.Background(), srv.URL+"/missing.toml", dir, false); err == nil {
		t.Fatalf("expected error for 404")
	}
	if _, err := Fetch(context.Background(), srv.URL+"/empty.toml", dir, false); err == nil {
		t.Fatalf("expected error for deck without chapters")
	}
	if _, err := Fetch(context.Background(), "not a url", dir, false); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}
