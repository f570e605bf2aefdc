package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// Uploader puts a single planned file into the bucket.
type Uploader interface {
	Upload(ctx context.Context, action Action) error
}

// Invalidator purges keys from an edge cache.
type Invalidator interface {
	Invalidate(ctx context.Context, keys mapset.Set[string]) error
}

// Executor carries out a Plan.
type Executor struct {
	Uploader Uploader
	// Invalidator is optional. When set it is called at most once per run, after
	// every upload attempt finished, with the keys that were uploaded.
	Invalidator Invalidator

	// Workers bounds the number of concurrent uploads. Defaults to 1.
	Workers int
	// MaxTries bounds the attempts per upload. Defaults to 1.
	MaxTries uint
	// Recoverable decides if a failed attempt may be retried. nil retries every error.
	Recoverable func(error) bool
	// BackOff returns the wait policy between attempts of one upload.
	BackOff func() backoff.BackOff
}

// Execute uploads every action of plan and then triggers invalidation. Failed
// uploads are collected in the returned Summary rather than stopping the run.
func (e *Executor) Execute(ctx context.Context, plan Plan) *Summary {
	errs := make([]error, len(plan))

	g := new(errgroup.Group)
	g.SetLimit(max(e.Workers, 1))
	for i, action := range plan {
		g.Go(func() error {
			errs[i] = e.upload(ctx, action)
			return nil
		})
	}
	_ = g.Wait()

	s := newSummary(len(plan))
	for i, action := range plan {
		if errs[i] != nil {
			s.Failed[action.Key] = &UploadError{Key: action.Key, Err: errs[i]}
			slog.Error("upload", "key", action.Key, "error", errs[i])
			continue
		}
		s.Succeeded.Add(action.Key)
		s.Bytes += action.File.Size
	}

	if e.Invalidator == nil || s.Succeeded.Cardinality() == 0 {
		return s
	}

	// only what actually landed in the bucket
	if err := e.Invalidator.Invalidate(ctx, s.Succeeded.Clone()); err != nil {
		s.InvalidationErr = &InvalidationError{Err: err}
		slog.Error("invalidate", "keys", s.Succeeded.Cardinality(), "error", err)
	} else {
		s.Invalidated = true
		slog.Info("invalidate", "keys", s.Succeeded.Cardinality(), "status", "requested")
	}

	return s
}

func (e *Executor) upload(ctx context.Context, action Action) error {
	op := func() (struct{}, error) {
		err := e.Uploader.Upload(ctx, action)
		if err != nil && e.Recoverable != nil && !e.Recoverable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(e.backOff()),
		backoff.WithMaxTries(max(e.MaxTries, 1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("upload failed, retrying", "key", action.Key, "in", next, "error", err)
		}),
	)
	if err != nil {
		return err
	}

	slog.Debug("upload", "key", action.Key, "reason", action.Reason, "status", "completed")
	return nil
}

func (e *Executor) backOff() backoff.BackOff {
	if e.BackOff != nil {
		return e.BackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	return b
}
