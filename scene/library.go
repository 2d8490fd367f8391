package scene

import (
	"github.com/google/uuid"
	"github.com/milk9111/rulesplayer/serial"
)

// Entry is a blueprint actors can be created from.
type Entry struct {
	EntryID string
	Title   string
	reader  *serial.Reader
}

// Components returns the blueprint's component map.
func (e *Entry) Components() *serial.Reader {
	if e == nil {
		return nil
	}
	bp, ok := e.reader.Obj("actorBlueprint")
	if !ok {
		return nil
	}
	c, _ := bp.Obj("components")
	return c
}

type Library struct {
	entries []*Entry
	byID    map[string]*Entry
}

func newLibrary() *Library {
	return &Library{byID: make(map[string]*Entry)}
}

// Add registers r as a library entry. Entries without an id get a fresh
// one.
func (l *Library) Add(r *serial.Reader) *Entry {
	e := &Entry{
		EntryID: r.Str("entryId", ""),
		Title:   r.Str("title", ""),
		reader:  r,
	}
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	if old := l.byID[e.EntryID]; old != nil {
		*old = *e
		return old
	}
	l.entries = append(l.entries, e)
	l.byID[e.EntryID] = e
	return e
}

func (l *Library) Get(id string) *Entry { return l.byID[id] }

// Find returns the entry whose id or title matches.
func (l *Library) Find(idOrTitle string) *Entry {
	if e := l.byID[idOrTitle]; e != nil {
		return e
	}
	for _, e := range l.entries {
		if e.Title == idOrTitle {
			return e
		}
	}
	return nil
}

func (l *Library) Len() int { return len(l.entries) }

func (l *Library) read(arr *serial.Reader) {
	arr.EachElem(func(_ int, r *serial.Reader) {
		if r.IsObject() {
			l.Add(r)
		}
	})
}

func (l *Library) write(w *serial.Writer) {
	for _, e := range l.entries {
		node := e.reader.Node()
		if node == nil {
			continue
		}
		w.PushObj(func(o *serial.Writer) {
			o.Str("entryId", e.EntryID)
			o.Str("title", e.Title)
			if bp, ok := e.reader.Field("actorBlueprint"); ok {
				o.Raw("actorBlueprint", bp.Node())
			}
		})
	}
}
