// Package store implements the keyed record store: named, tenant-scoped
// collections persisted as JSON arrays in an injected key-value backend.
// Mutations run through an optimistic compare-and-swap loop so concurrent
// read-modify-write cycles are serialized instead of silently losing
// updates.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/kvstore"
)

const defaultMaxRetries = 5

// Observer receives timing signals from store operations.
type Observer interface {
	ObserveStoreOperation(collection, op string, duration time.Duration)
	RecordStoreConflict()
}

// Store reads and writes whole collections against a KV backend.
type Store struct {
	kv         kvstore.KV
	logger     *zap.Logger
	maxRetries int
	observer   Observer
}

// New constructs a record store over the given backend.
func New(kv kvstore.KV, logger *zap.Logger, maxRetries int) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Store{kv: kv, logger: logger, maxRetries: maxRetries}
}

// SetObserver attaches an operation observer. Pass nil to detach.
func (s *Store) SetObserver(obs Observer) {
	s.observer = obs
}

func (s *Store) observe(collection, op string, started time.Time) {
	if s.observer != nil {
		s.observer.ObserveStoreOperation(collection, op, time.Since(started))
	}
}

// Key composes the storage key for a collection. Tenant-scoped collections
// use `<collection>Data_<schoolID>`; global collections leave the school
// empty and use `<collection>Data`.
func Key(collection, schoolID string) string {
	if schoolID == "" {
		return collection + "Data"
	}
	return fmt.Sprintf("%sData_%s", collection, schoolID)
}

// Read decodes the collection into dest. A missing key leaves dest empty.
// An undecodable payload is quarantined and reported as CorruptCollection.
func (s *Store) Read(ctx context.Context, collection, schoolID string, dest interface{}) error {
	defer s.observe(collection, "read", time.Now())

	key := Key(collection, schoolID)
	raw, _, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read collection")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.quarantine(ctx, key, raw, err)
		return appErrors.Wrap(err, appErrors.ErrCorruptCollection.Code, appErrors.ErrCorruptCollection.Status, appErrors.ErrCorruptCollection.Message)
	}
	return nil
}

// Write serializes records and overwrites the full collection.
func (s *Store) Write(ctx context.Context, collection, schoolID string, records interface{}) error {
	defer s.observe(collection, "write", time.Now())

	raw, err := json.Marshal(records)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode collection")
	}
	if err := s.kv.Set(ctx, Key(collection, schoolID), raw); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write collection")
	}
	return nil
}

// Update applies a read-modify-write cycle under compare-and-swap. The
// callback receives the current raw payload (nil when the collection does
// not exist yet) and returns the replacement payload. On version conflict
// the cycle is retried with a fresh read, up to the configured bound.
func (s *Store) Update(ctx context.Context, collection, schoolID string, apply func(raw json.RawMessage) (json.RawMessage, error)) error {
	defer s.observe(collection, "update", time.Now())

	key := Key(collection, schoolID)
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		raw, version, err := s.kv.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, kvstore.ErrKeyNotFound) {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read collection")
			}
			raw, version = nil, 0
		}

		next, err := apply(raw)
		if err != nil {
			var typed *appErrors.Error
			if errors.As(err, &typed) && typed.Code == appErrors.ErrCorruptCollection.Code {
				s.quarantine(ctx, key, raw, err)
			}
			return err
		}

		err = s.kv.CompareAndSwap(ctx, key, next, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kvstore.ErrVersionConflict) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write collection")
		}
		if s.observer != nil {
			s.observer.RecordStoreConflict()
		}
		s.logger.Debug("record store retrying after version conflict",
			zap.String("key", key), zap.Int("attempt", attempt+1))
	}
	return appErrors.Clone(appErrors.ErrVersionConflict, "collection update retries exhausted")
}

// DecodeList unmarshals a raw collection payload into dest, treating a nil
// payload as an empty collection and tagging decode failures as corrupt.
func DecodeList(raw json.RawMessage, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCorruptCollection.Code, appErrors.ErrCorruptCollection.Status, appErrors.ErrCorruptCollection.Message)
	}
	return nil
}

// quarantine preserves an undecodable payload under a side key and removes
// the live entry so later writes start from a clean slate. The payload is
// kept for operator inspection instead of being silently dropped.
func (s *Store) quarantine(ctx context.Context, key string, raw []byte, cause error) {
	if len(raw) == 0 {
		return
	}
	quarantineKey := fmt.Sprintf("%s!corrupt!%d", key, time.Now().UnixNano())
	if err := s.kv.Set(ctx, quarantineKey, raw); err != nil {
		s.logger.Error("failed to quarantine corrupt collection",
			zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("failed to clear corrupt collection",
			zap.String("key", key), zap.Error(err))
	}
	s.logger.Warn("corrupt collection quarantined",
		zap.String("key", key),
		zap.String("quarantine_key", quarantineKey),
		zap.Error(cause))
}
