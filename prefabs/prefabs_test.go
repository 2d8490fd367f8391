package prefabs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmbedded(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	tests := []struct {
		id    string
		title string
	}{
		{"demo", "Bouncing Balls"},
		{"about.yaml", "About"},
		{"cards/demo.json", "Bouncing Balls"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, err := lib.Load(tt.id)
			if err != nil {
				t.Fatalf("Load(%q): %v", tt.id, err)
			}
			if c.Title != tt.title || !c.Embedded || len(c.Data) == 0 {
				t.Fatalf("unexpected card %+v", c)
			}
		})
	}
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)
	if err := os.MkdirAll(lib.CardsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	writeCard(t, lib, "demo.json", `{"title": "Local Demo", "actors": []}`)
	writeCard(t, lib, "extra.yaml", "actors: []\n")

	c, err := lib.Load("demo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Embedded || c.Title != "Local Demo" || c.ModTime.IsZero() {
		t.Fatalf("expected disk card, got %+v", c)
	}

	cards, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	want := []string{"about", "demo", "extra"}
	if len(ids) != len(want) {
		t.Fatalf("List ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("List ids = %v, want %v", ids, want)
		}
	}
	if cards[2].Title != "extra" {
		t.Fatalf("untitled card title = %q, want its id", cards[2].Title)
	}
}

func TestFind(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	tests := []struct {
		name    string
		id      string
		title   string
		want    string
		wantErr bool
	}{
		{name: "by id", id: "about", want: "about"},
		{name: "by title", title: "bouncing balls", want: "demo"},
		{name: "stale id falls back to title", id: "gone", title: "About", want: "about"},
		{name: "unknown id", id: "gone", wantErr: true},
		{name: "unknown title", title: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := lib.Find(tt.id, tt.title)
			if tt.wantErr {
				if !errors.Is(err, ErrCardNotFound) {
					t.Fatalf("expected ErrCardNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if c.ID != tt.want {
				t.Fatalf("Find = %q, want %q", c.ID, tt.want)
			}
		})
	}
}

func TestWatcherDebounces(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	if err := os.MkdirAll(lib.CardsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(lib.CardsDir())
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		writeCard(t, lib, "live.json", `{"actors": []}`)
		writeCard(t, lib, "notes.txt", "ignored")
	}

	select {
	case name := <-w.Events:
		if CardID(name) != "live" {
			t.Fatalf("unexpected event for %s", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event for changed card")
	}
	select {
	case name := <-w.Events:
		t.Fatalf("burst produced a second event for %s", name)
	case <-time.After(300 * time.Millisecond):
	}
}

func writeCard(t *testing.T, lib *Library, name, data string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(lib.CardsDir(), name), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}
