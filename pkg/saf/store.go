package saf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/theapemachine/senseable-go/pkg/errors"
)

/*
Store persists fingerprints per user.
*/
type Store interface {
	Load(ctx context.Context, userID string) (Fingerprint, error)
	Save(ctx context.Context, userID string, fp Fingerprint) error
}

/*
InMemoryStore is the default implementation, safe for concurrent use.
Sufficient for dev and unit tests; production swaps in FileStore or its own
backend.
*/
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]Fingerprint
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]Fingerprint)}
}

func (store *InMemoryStore) Load(ctx context.Context, userID string) (Fingerprint, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	fp, ok := store.data[userID]
	if !ok {
		return Fingerprint{}, errors.ErrFingerprintNotFound.WithMessagef(
			"no fingerprint for user %s", userID,
		)
	}

	return fp.Clone(), nil
}

func (store *InMemoryStore) Save(ctx context.Context, userID string, fp Fingerprint) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.data[userID] = fp.Clone()

	return nil
}

/*
FileStore persists one JSON file per user under a state directory.
*/
type FileStore struct {
	mu       sync.RWMutex
	stateDir string
}

func NewFileStore(stateDir string) (*FileStore, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create fingerprint directory: %w", err)
	}

	return &FileStore{stateDir: stateDir}, nil
}

func (store *FileStore) path(userID string) string {
	return filepath.Join(store.stateDir, fmt.Sprintf("%s.json", userID))
}

func (store *FileStore) Load(ctx context.Context, userID string) (Fingerprint, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	f, err := os.Open(store.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return Fingerprint{}, errors.ErrFingerprintNotFound.WithMessagef(
				"no fingerprint for user %s", userID,
			)
		}
		return Fingerprint{}, fmt.Errorf("failed to open fingerprint file: %w", err)
	}
	defer f.Close()

	var fp Fingerprint
	if err := json.NewDecoder(f).Decode(&fp); err != nil {
		return Fingerprint{}, fmt.Errorf("failed to decode fingerprint: %w", err)
	}

	return fp, nil
}

func (store *FileStore) Save(ctx context.Context, userID string, fp Fingerprint) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f, err := os.Create(store.path(userID))
	if err != nil {
		return fmt.Errorf("failed to create fingerprint file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(fp); err != nil {
		return fmt.Errorf("failed to encode fingerprint: %w", err)
	}

	return nil
}
