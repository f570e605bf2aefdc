package sync

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
)

// Summary is the outcome of an Executor run.
type Summary struct {
	Planned   int
	Succeeded mapset.Set[string]
	Failed    map[string]error
	Bytes     int64

	Invalidated     bool
	InvalidationErr error
}

func newSummary(planned int) *Summary {
	return &Summary{
		Planned:   planned,
		Succeeded: mapset.NewThreadUnsafeSet[string](),
		Failed:    map[string]error{},
	}
}

// FailedKeys returns the keys that could not be uploaded, sorted.
func (s *Summary) FailedKeys() []string {
	keys := make([]string, 0, len(s.Failed))
	for k := range s.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Err joins every upload and invalidation error, or returns nil.
func (s *Summary) Err() error {
	var errs []error
	for _, k := range s.FailedKeys() {
		errs = append(errs, s.Failed[k])
	}
	if s.InvalidationErr != nil {
		errs = append(errs, s.InvalidationErr)
	}
	return errors.Join(errs...)
}

// Log writes a one line summary.
func (s *Summary) Log() {
	level := slog.LevelInfo
	if len(s.Failed) > 0 || s.InvalidationErr != nil {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "sync summary",
		"planned", s.Planned,
		"uploaded", s.Succeeded.Cardinality(),
		"failed", len(s.Failed),
		"bytes", humanize.Bytes(uint64(s.Bytes)),
		"invalidated", s.Invalidated,
	)
}
