package statestore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session has no stored state.
var ErrNotFound = errors.New("session state not found")

// Store persists opaque per-session layout state between frames. Blobs are
// written whole; there is no partial update.
type Store interface {
	// Save stores the state blob for a session, replacing any previous one.
	Save(ctx context.Context, sessionID string, state []byte) error

	// Load returns the stored state blob, or ErrNotFound.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session's state. Deleting an absent session is not
	// an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session ids in sorted order.
	List(ctx context.Context) ([]string, error)

	// Close releases any underlying resources.
	Close() error
}

// OperationRecorder receives per-operation accounting. Implemented by
// metrics.Registry.
type OperationRecorder interface {
	RecordStoreOperation(backend, operation, status string, duration time.Duration)
}

// Instrument wraps a store so every operation is recorded against the given
// backend name.
func Instrument(s Store, backend string, rec OperationRecorder) Store {
	if rec == nil {
		return s
	}
	return &instrumentedStore{inner: s, backend: backend, rec: rec}
}

type instrumentedStore struct {
	inner   Store
	backend string
	rec     OperationRecorder
}

func (s *instrumentedStore) record(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	s.rec.RecordStoreOperation(s.backend, op, status, time.Since(start))
}

func (s *instrumentedStore) Save(ctx context.Context, sessionID string, state []byte) error {
	start := time.Now()
	err := s.inner.Save(ctx, sessionID, state)
	s.record("save", start, err)
	return err
}

func (s *instrumentedStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	start := time.Now()
	state, err := s.inner.Load(ctx, sessionID)
	s.record("load", start, err)
	return state, err
}

func (s *instrumentedStore) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, sessionID)
	s.record("delete", start, err)
	return err
}

func (s *instrumentedStore) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := s.inner.List(ctx)
	s.record("list", start, err)
	return ids, err
}

func (s *instrumentedStore) Close() error {
	return s.inner.Close()
}
