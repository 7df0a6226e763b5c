package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by a Backend when the slot is empty.
var ErrNotFound = errors.New("session not found")

// Backend is a durable slot holding the serialised session record.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Delete() error
}

// FileBackend stores the session record in a single file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backed slot.
// If path is empty, uses ~/.boxoffice/session.json
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".boxoffice", "session.json")
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("path", path).Msg("session file backend initialized")

	return &FileBackend{path: path}, nil
}

// Path returns the location of the session file.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return data, nil
}

// Save writes the record atomically.
func (b *FileBackend) Save(data []byte) error {
	tempPath := b.path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, b.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (b *FileBackend) Delete() error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// MemoryBackend keeps the record in process memory.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Save(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append([]byte(nil), data...)
	return nil
}

func (b *MemoryBackend) Delete() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = nil
	return nil
}
