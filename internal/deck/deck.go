// Package deck loads chapter decks of vocabulary and example sentences.
package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Word is one vocabulary entry.
type Word struct {
	Hanzi   string `toml:"hanzi"`
	Pinyin  string `toml:"pinyin"`
	English string `toml:"english"`
}

// Sentence is an example sentence split into words.
type Sentence struct {
	Hanzi   string   `toml:"hanzi"`
	Words   []string `toml:"words"`
	English string   `toml:"english"`
}

// Chapter groups the words and sentences of one textbook chapter.
type Chapter struct {
	ID        string     `toml:"id"`
	Title     string     `toml:"title"`
	Words     []Word     `toml:"word"`
	Sentences []Sentence `toml:"sentence"`
}

// Deck is one textbook.
type Deck struct {
	Book     string    `toml:"book"`
	Title    string    `toml:"title"`
	Chapters []Chapter `toml:"chapter"`
}

// Load reads and validates a deck file. The book id defaults to the file name.
func Load(path string) (Deck, error) {
	var d Deck
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return Deck{}, fmt.Errorf("failed to decode deck: %w", err)
	}
	if d.Book == "" {
		d.Book = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := d.Validate(); err != nil {
		return Deck{}, err
	}
	return d, nil
}

// Validate trims entries and rejects decks without usable content.
func (d *Deck) Validate() error {
	if len(d.Chapters) == 0 {
		return fmt.Errorf("deck %s has no chapters", d.Book)
	}
	seen := map[string]bool{}
	for i := range d.Chapters {
		ch := &d.Chapters[i]
		ch.ID = strings.TrimSpace(ch.ID)
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("%d", i+1)
		}
		if seen[ch.ID] {
			return fmt.Errorf("deck %s: duplicate chapter %s", d.Book, ch.ID)
		}
		seen[ch.ID] = true

		words := ch.Words[:0]
		for _, w := range ch.Words {
			w.Hanzi = strings.TrimSpace(w.Hanzi)
			w.Pinyin = strings.TrimSpace(w.Pinyin)
			w.English = strings.TrimSpace(w.English)
			if w.Hanzi == "" {
				continue
			}
			words = append(words, w)
		}
		ch.Words = words

		sentences := ch.Sentences[:0]
		for _, s := range ch.Sentences {
			s.Hanzi = strings.TrimSpace(s.Hanzi)
			if len(s.Words) == 0 || s.Hanzi == "" {
				continue
			}
			sentences = append(sentences, s)
		}
		ch.Sentences = sentences

		if len(ch.Words) == 0 && len(ch.Sentences) == 0 {
			return fmt.Errorf("deck %s: chapter %s is empty", d.Book, ch.ID)
		}
	}
	return nil
}

// Chapter returns the chapter with id. An empty id selects the first chapter.
func (d Deck) Chapter(id string) (Chapter, error) {
	if id == "" {
		return d.Chapters[0], nil
	}
	for _, ch := range d.Chapters {
		if ch.ID == id {
			return ch, nil
		}
	}
	return Chapter{}, fmt.Errorf("chapter %s not found in %s", id, d.Book)
}

// List returns the deck file names in dir without extension, sorted.
// A missing directory yields no decks.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(names)
	return names, nil
}
