package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Entry is one published link as stored in the JSON file.
type Entry struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	PostedAt time.Time `json:"posted_at"`
}

// File is a JSON-file ledger for deployments without a database. Records
// survive restarts; the file is rewritten on every insert, which is fine
// at a few publications per hour.
type File struct {
	path  string
	mu    sync.Mutex
	items map[string]Entry // keyed by link
}

func NewFile(path string) (*File, error) {
	f := &File{path: path, items: make(map[string]Entry)}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse ledger file: %w", err)
	}
	for _, entry := range entries {
		f.items[entry.Link] = entry
	}
	return nil
}

func (f *File) save() error {
	entries := make([]Entry, 0, len(f.items))
	for _, entry := range f.items {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}

func (f *File) Has(_ context.Context, link string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[link]
	return ok, nil
}

func (f *File) Record(_ context.Context, id, title, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[link]; ok {
		return nil
	}
	f.items[link] = Entry{ID: id, Title: title, Link: link, PostedAt: time.Now()}
	return f.save()
}
