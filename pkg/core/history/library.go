package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codecanvas/pkg/core/codefmt"

	"github.com/google/uuid"
)

// Snippet is a piece of code the user saved for later.
type Snippet struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	Language   string    `json:"language"`
	CreatedAt  time.Time `json:"createdAt"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"isFavorite"`
}

// SnippetUpdate carries the fields to change; nil fields are kept.
type SnippetUpdate struct {
	Title      *string   `json:"title,omitempty"`
	Code       *string   `json:"code,omitempty"`
	Language   *string   `json:"language,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	IsFavorite *bool     `json:"isFavorite,omitempty"`
}

// Library is a user's snippet collection, newest first. With a path it is
// loaded from and written back to a JSON file after every change.
type Library struct {
	path     string
	mu       sync.RWMutex
	snippets []Snippet
}

// OpenLibrary loads the library at path. A missing file is an empty library;
// an empty path keeps the library in memory only.
func OpenLibrary(path string) (*Library, error) {
	l := &Library{path: path}
	if path == "" {
		return l, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &l.snippets); err != nil {
		return nil, fmt.Errorf("failed to load snippet library: %w", err)
	}
	return l, nil
}

func (l *Library) persist() error {
	if l.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.snippets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}

// Add stores s at the front of the library and returns it with its new ID. An empty
// Language is detected from the code and an empty Title derived from it.
func (l *Library) Add(s Snippet) (Snippet, error) {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	if s.Language == "" {
		s.Language = codefmt.DetectLanguage(s.Code)
	}
	if s.Title == "" {
		s.Title = Title(s.Code)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.snippets = append([]Snippet{s}, l.snippets...)
	return s, l.persist()
}

// SnippetFromMessage builds a snippet from an assistant message that carries code.
func SnippetFromMessage(m Message) (Snippet, bool) {
	if m.Code == "" {
		return Snippet{}, false
	}
	title := m.FileName
	if title == "" {
		title = Title(m.Prompt)
	}
	return Snippet{
		Title:    title,
		Code:     m.Code,
		Language: codefmt.DetectLanguage(m.Code),
		Tags:     []string{m.Type},
	}, true
}

func (l *Library) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.snippets {
		if s.ID == id {
			l.snippets = append(l.snippets[:i], l.snippets[i+1:]...)
			return l.persist()
		}
	}
	return ErrNotFound
}

func (l *Library) ToggleFavorite(id string) (Snippet, error) {
	return l.Update(id, SnippetUpdate{}, func(s *Snippet) { s.IsFavorite = !s.IsFavorite })
}

// Update applies u, then any extra edits, to the snippet id.
func (l *Library) Update(id string, u SnippetUpdate, edits ...func(*Snippet)) (Snippet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.snippets {
		s := &l.snippets[i]
		if s.ID != id {
			continue
		}
		if u.Title != nil {
			s.Title = *u.Title
		}
		if u.Code != nil {
			s.Code = *u.Code
		}
		if u.Language != nil {
			s.Language = *u.Language
		}
		if u.Tags != nil {
			s.Tags = append([]string{}, (*u.Tags)...)
		}
		if u.IsFavorite != nil {
			s.IsFavorite = *u.IsFavorite
		}
		for _, edit := range edits {
			edit(s)
		}
		return *s, l.persist()
	}
	return Snippet{}, ErrNotFound
}

func (l *Library) Get(id string) (Snippet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.snippets {
		if s.ID == id {
			return s, nil
		}
	}
	return Snippet{}, ErrNotFound
}

func (l *Library) All() []Snippet {
	return l.filter(func(Snippet) bool { return true })
}

// Search matches query case-insensitively against titles, code and tags. A
// blank query returns everything.
func (l *Library) Search(query string) []Snippet {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return l.All()
	}
	return l.filter(func(s Snippet) bool {
		if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.Code), q) {
			return true
		}
		for _, tag := range s.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
}

func (l *Library) ByLanguage(language string) []Snippet {
	return l.filter(func(s Snippet) bool { return s.Language == language })
}

func (l *Library) Favorites() []Snippet {
	return l.filter(func(s Snippet) bool { return s.IsFavorite })
}

func (l *Library) filter(keep func(Snippet) bool) []Snippet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []Snippet{}
	for _, s := range l.snippets {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// Libraries hands out one Library per user, stored as dir/<user>.json. An
// empty dir keeps every library in memory.
type Libraries struct {
	dir  string
	mu   sync.Mutex
	open map[string]*Library
}

func NewLibraries(dir string) *Libraries {
	return &Libraries{dir: dir, open: make(map[string]*Library)}
}

func (ls *Libraries) For(userID string) (*Library, error) {
	name, err := safeName(userID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if l, ok := ls.open[name]; ok {
		return l, nil
	}
	path := ""
	if ls.dir != "" {
		path = filepath.Join(ls.dir, name+".json")
	}
	l, err := OpenLibrary(path)
	if err != nil {
		return nil, err
	}
	ls.open[name] = l
	return l, nil
}
