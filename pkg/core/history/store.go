package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store persists conversations per user.
type Store interface {
	// List returns the user's conversations, most recently updated first.
	List(ctx context.Context, userID string) ([]Summary, error)
	Get(ctx context.Context, userID, id string) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, userID, id string) error
}

// FileStore keeps one JSON file per conversation under dir/<user>/.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store rooted at dir, defaulting to
// .cache/history.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = filepath.Join(".cache", "history")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("[history] WARNING: cannot create %s: %v", dir, err)
	}
	return &FileStore{dir: dir}
}

// safeName keeps ids usable as single path elements.
func safeName(s string) (string, error) {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return "", fmt.Errorf("%w %q", ErrInvalidID, s)
	}
	return s, nil
}

func (s *FileStore) userDir(userID string) (string, error) {
	name, err := safeName(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FileStore) path(userID, id string) (string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return "", err
	}
	name, err := safeName(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

func (s *FileStore) List(ctx context.Context, userID string) ([]Summary, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(files))
	for _, f := range files {
		c, err := loadFile(f)
		if err != nil {
			log.Printf("[history] skipping unreadable %s: %v", f, err)
			continue
		}
		summaries = append(summaries, c.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt) })
	return summaries, nil
}

func (s *FileStore) Get(ctx context.Context, userID, id string) (*Conversation, error) {
	path, err := s.path(userID, id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := loadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *FileStore) Save(ctx context.Context, c *Conversation) error {
	path, err := s.path(c.UserID, c.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Delete(ctx context.Context, userID, id string) error {
	path, err := s.path(userID, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func loadFile(path string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return &c, nil
}
