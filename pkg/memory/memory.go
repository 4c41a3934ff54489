/*
Package memory implements the agentic memory: an append-only feedback log
per user, plus the derived view that folds that history back into an
effective fingerprint. History is evidence, the stored fingerprint stays
the single source of truth.
*/
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/senseable-go/pkg/errors"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
Record is one feedback event: a span that was (or was not) rewritten for a
user, and whether the user accepted the result. Delta carries the per-
modality sensitivity nudges the event implies.
*/
type Record struct {
	ID          uuid.UUID                     `json:"id"`
	UserID      string                        `json:"user_id"`
	Timestamp   time.Time                     `json:"timestamp"`
	Span        string                        `json:"span"`
	Modality    taxonomy.Modality             `json:"modality"`
	Replacement string                        `json:"replacement"`
	Accepted    bool                          `json:"accepted"`
	Delta       map[taxonomy.Modality]float64 `json:"delta,omitempty"`
}

/*
NewRecord stamps identity and time; callers fill in the event fields.
*/
func NewRecord(userID string) Record {
	return Record{
		ID:        uuid.New(),
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

/*
Store is the append-only history contract. History returns the newest
records first, capped at limit (0 means all).
*/
type Store interface {
	Append(ctx context.Context, record Record) error
	History(ctx context.Context, userID string, limit int) ([]Record, error)
}

/*
InMemoryStore keeps per-user slices under a RWMutex. Appends are serialized
per store, which also guarantees monotonic timestamps within a user.
*/
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
	lastTS  map[string]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]Record),
		lastTS:  make(map[string]time.Time),
	}
}

func (store *InMemoryStore) Append(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if record.UserID == "" {
		return errors.ErrValidation.WithMessagef("memory record missing user id")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	// timestamps must be strictly monotonic within a user
	if last, ok := store.lastTS[record.UserID]; ok && !record.Timestamp.After(last) {
		record.Timestamp = last.Add(time.Nanosecond)
	}
	store.lastTS[record.UserID] = record.Timestamp

	store.records[record.UserID] = append(store.records[record.UserID], record)

	return nil
}

func (store *InMemoryStore) History(
	ctx context.Context, userID string, limit int,
) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	records := store.records[userID]

	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

const defaultLearningRate = 0.05

/*
EffectiveFingerprint folds history into a copy of the base fingerprint.
A rejected rewrite means the substitution still did not land for the user,
so the span's modality gets more sensitive; an accepted one confirms the
current calibration and relaxes it slightly. Explicit per-record deltas
apply on top. Exclusions never change here, only a profile update can set
or clear those.
*/
func EffectiveFingerprint(
	base saf.Fingerprint, history []Record, learningRate float64,
) saf.Fingerprint {
	if learningRate <= 0 {
		learningRate = defaultLearningRate
	}

	effective := base.Clone()

	for _, record := range history {
		if record.Modality != "" {
			sensitivity := effective.Sensitivities[record.Modality]
			if record.Accepted {
				sensitivity.Weight = clamp01(sensitivity.Weight - learningRate/2)
			} else {
				sensitivity.Weight = clamp01(sensitivity.Weight + learningRate)
			}
			effective.Sensitivities[record.Modality] = sensitivity
		}

		for modality, delta := range record.Delta {
			sensitivity := effective.Sensitivities[modality]
			sensitivity.Weight = clamp01(sensitivity.Weight + delta)
			effective.Sensitivities[modality] = sensitivity
		}
	}

	return effective
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
