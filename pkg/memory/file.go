package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/senseable-go/pkg/errors"
)

/*
FileStore persists history as one JSONL file per user under stateDir. The
format is append-friendly: a crash can at worst lose the final partial
line, never corrupt earlier records.
*/
type FileStore struct {
	mu       sync.Mutex
	stateDir string
	lastTS   map[string]time.Time
}

func NewFileStore(stateDir string) (*FileStore, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create state dir: %w", err)
	}

	return &FileStore{
		stateDir: stateDir,
		lastTS:   make(map[string]time.Time),
	}, nil
}

func (store *FileStore) Append(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if record.UserID == "" {
		return errors.ErrValidation.WithMessagef("memory record missing user id")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if last, ok := store.lastTS[record.UserID]; ok && !record.Timestamp.After(last) {
		record.Timestamp = last.Add(time.Nanosecond)
	}
	store.lastTS[record.UserID] = record.Timestamp

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("memory: marshal record: %w", err)
	}

	file, err := os.OpenFile(
		store.path(record.UserID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
	)
	if err != nil {
		return fmt.Errorf("memory: open history: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("memory: append history: %w", err)
	}

	return nil
}

func (store *FileStore) History(
	ctx context.Context, userID string, limit int,
) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(store.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: open history: %w", err)
	}
	defer file.Close()

	var records []Record

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			log.Warn("skipping malformed history line", "user", userID, "error", err)
			continue
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("memory: read history: %w", err)
	}

	// newest first, matching the in-memory store
	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

func (store *FileStore) path(userID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, userID)

	return filepath.Join(store.stateDir, safe+".jsonl")
}
