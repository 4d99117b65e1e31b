package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type fileState struct {
	Users map[string]Snapshot `json:"users"`
}

// FileStore keeps every user's record in a single JSON file.
type FileStore struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	fs := &FileStore{
		path: filepath.Join(dataDir, "state.json"),
		s:    fileState{Users: map[string]Snapshot{}},
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (f *FileStore) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.Users == nil {
		loaded.Users = map[string]Snapshot{}
	}
	for email, snap := range loaded.Users {
		loaded.Users[email] = normalizeSnapshot(snap)
	}
	f.s = loaded
	return nil
}

func (f *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(f.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, b, 0o644)
}

func userKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (f *FileStore) Load(ctx context.Context, email string) (Snapshot, error) {
	_ = ctx
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap, ok := f.s.Users[userKey(email)]
	if !ok {
		return normalizeSnapshot(Snapshot{}), nil
	}
	return normalizeSnapshot(snap), nil
}

func (f *FileStore) Save(ctx context.Context, email string, snap Snapshot) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()

	f.s.Users[userKey(email)] = normalizeSnapshot(snap)
	return f.saveLocked()
}

// Emails lists every user with a stored record, sorted.
func (f *FileStore) Emails(ctx context.Context) ([]string, error) {
	_ = ctx
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.s.Users))
	for email := range f.s.Users {
		out = append(out, email)
	}
	sort.Strings(out)
	return out, nil
}

func (f *FileStore) Clear(ctx context.Context, email string) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.s.Users, userKey(email))
	return f.saveLocked()
}
