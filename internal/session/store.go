// Package session keeps per-session dashboard state across page navigation.
//
// The only value the gateway stores today is the aggregated analysis result, kept
// under ResultKey and overwritten on every successful analysis.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/sirupsen/logrus"
)

// ResultKey is the fixed key the aggregated analysis result is stored under.
const ResultKey = "analysis_result"

// Store is a session-scoped key-value store.
type Store interface {
	Put(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error
	// Get returns the stored value and whether it was present.
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Delete(ctx context.Context, sessionID, key string) error
	Close() error
}

// Save writes the result under ResultKey, replacing any previous value.
func Save(ctx context.Context, store Store, sessionID string, result *domain.UIAnalysisResult, ttl time.Duration) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	if err := store.Put(ctx, sessionID, ResultKey, data, ttl); err != nil {
		return fmt.Errorf("failed to store analysis result: %w", err)
	}
	return nil
}

// Restore reads the stored result. A missing value, an unreadable backend and a value
// that no longer parses are all reported as a miss; corrupted values are removed.
func Restore(ctx context.Context, store Store, sessionID string, logger *logrus.Logger) (*domain.UIAnalysisResult, bool) {
	if validateSessionID(sessionID) != nil {
		return nil, false
	}
	entry := logger.WithFields(logrus.Fields{"session_id": sessionID, "key": ResultKey})

	data, ok, err := store.Get(ctx, sessionID, ResultKey)
	if err != nil {
		entry.WithError(err).Warn("Failed to read stored analysis result")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result domain.UIAnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		entry.WithError(err).Warn("Discarding corrupted analysis result")
		if err := store.Delete(ctx, sessionID, ResultKey); err != nil {
			entry.WithError(err).Warn("Failed to remove corrupted analysis result")
		}
		return nil, false
	}
	return &result, true
}

// Clear removes the stored result.
func Clear(ctx context.Context, store Store, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return store.Delete(ctx, sessionID, ResultKey)
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.NewValidationError("session_id", "session id is required", sessionID)
	}
	return nil
}

func storageKey(sessionID, key string) string {
	return sessionID + ":" + key
}
