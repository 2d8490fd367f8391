// Package prefabs finds card files. A card is a scene document stored as
// cards/<id>.json or cards/<id>.yaml, looked up on disk first and in the
// embedded set second.
package prefabs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrCardNotFound = errors.New("prefabs: card not found")

//go:embed cards/*
var CardsFS embed.FS

var cardExts = []string{".json", ".yaml", ".yml"}

type Card struct {
	ID       string
	Title    string
	Path     string
	Data     []byte
	Embedded bool
	ModTime  time.Time
}

type cardHeader struct {
	Title string `yaml:"title"`
}

// Library resolves cards under Dir/cards, falling back to CardsFS.
type Library struct {
	Dir string
}

func NewLibrary(dir string) *Library {
	return &Library{Dir: dir}
}

// CardsDir is the directory a Watcher should observe.
func (l *Library) CardsDir() string {
	return filepath.Join(l.Dir, "cards")
}

func (l *Library) Load(id string) (*Card, error) {
	id = CardID(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrCardNotFound)
	}
	for _, ext := range cardExts {
		p := filepath.Join(l.CardsDir(), id+ext)
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var mod time.Time
		if info, err := os.Stat(p); err == nil {
			mod = info.ModTime()
		}
		return parseCard(id, p, data, false, mod)
	}
	for _, ext := range cardExts {
		p := path.Join("cards", id+ext)
		if data, err := CardsFS.ReadFile(p); err == nil {
			return parseCard(id, p, data, true, time.Time{})
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
}

// Find loads a card by id, or by case-insensitive title when id is empty or
// unknown.
func (l *Library) Find(id, title string) (*Card, error) {
	if id != "" {
		c, err := l.Load(id)
		if err == nil || title == "" {
			return c, err
		}
	}
	cards, err := l.List()
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if strings.EqualFold(cards[i].Title, title) {
			return &cards[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCardNotFound, title)
}

// List returns every card sorted by id. Disk cards hide embedded ones with
// the same id.
func (l *Library) List() ([]Card, error) {
	ids := make(map[string]struct{})
	if entries, err := os.ReadDir(l.CardsDir()); err == nil {
		for _, e := range entries {
			if !e.IsDir() && IsCardFile(e.Name()) {
				ids[CardID(e.Name())] = struct{}{}
			}
		}
	}
	entries, err := fs.ReadDir(CardsFS, "cards")
	if err != nil {
		return nil, fmt.Errorf("prefabs: list embedded cards: %w", err)
	}
	for _, e := range entries {
		if IsCardFile(e.Name()) {
			ids[CardID(e.Name())] = struct{}{}
		}
	}

	out := make([]Card, 0, len(ids))
	for id := range ids {
		c, err := l.Load(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func parseCard(id, p string, data []byte, embedded bool, mod time.Time) (*Card, error) {
	var h cardHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", p, err)
	}
	if h.Title == "" {
		h.Title = id
	}
	return &Card{ID: id, Title: h.Title, Path: p, Data: data, Embedded: embedded, ModTime: mod}, nil
}

// CardID strips directories and the extension from a card path.
func CardID(p string) string {
	base := filepath.Base(filepath.ToSlash(p))
	if base == "." || base == "/" {
		return ""
	}
	for _, ext := range cardExts {
		if strings.EqualFold(filepath.Ext(base), ext) {
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return base
}

func IsCardFile(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range cardExts {
		if ext == e {
			return true
		}
	}
	return false
}
