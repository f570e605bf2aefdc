package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/OndrejSlamecka/s5upload/internal/config"
	"github.com/OndrejSlamecka/s5upload/internal/s3site"
	"github.com/OndrejSlamecka/s5upload/internal/sync"
)

// Exit codes
const (
	Success = iota
	SetupFailed
	CmdLineOptionError
	PlanFailed
	UploadFailed
	InvalidationFailed
)

// bucket is the remote side of a run: listed once, then written to.
type bucket interface {
	List(ctx context.Context, prefix string) (sync.Listing, error)
	sync.Uploader
}

// syncSite runs one sync of cfg.Dir into b. The local tree is scanned before any
// request is made, the bucket is listed exactly once, and nothing is uploaded
// unless the whole plan could be built. inv may be nil.
func syncSite(ctx context.Context, cfg *config.Config, b bucket, inv sync.Invalidator, dryRun bool, out io.Writer) (*sync.Summary, error) {
	rules, err := cfg.CacheRules()
	if err != nil {
		return nil, exitErr(CmdLineOptionError, err)
	}

	planner := &sync.Planner{Rules: rules, Prefix: cfg.Prefix, Exclude: cfg.Exclude}
	files, err := planner.Scan(cfg.Dir)
	if err != nil {
		return nil, exitErr(PlanFailed, err)
	}

	listing, err := b.List(ctx, cfg.Prefix)
	if err != nil {
		return nil, exitErr(SetupFailed, err)
	}
	slog.Debug("remote listing", "bucket", cfg.Bucket, "objects", len(listing))

	plan, err := planner.PlanFiles(files, listing)
	if err != nil {
		return nil, exitErr(PlanFailed, err)
	}

	if len(plan) == 0 {
		slog.Info("Nothing to upload.", "files", len(files))
		return nil, nil
	}

	printPlan(out, plan)
	slog.Info("plan ready", "bucket", cfg.Bucket, "uploads", len(plan), "size", humanize.Bytes(uint64(plan.Size())))

	if dryRun {
		slog.Info("dry run, skipping upload")
		return nil, nil
	}

	executor := &sync.Executor{
		Uploader:    b,
		Invalidator: inv,
		Workers:     cfg.Workers,
		MaxTries:    uint(max(cfg.MaxTries, 1)),
		Recoverable: s3site.IsRecoverable,
	}
	summary := executor.Execute(ctx, plan)
	summary.Log()

	switch {
	case len(summary.Failed) > 0:
		return summary, exitErr(UploadFailed, summary.Err())
	case summary.InvalidationErr != nil:
		return summary, exitErr(InvalidationFailed, summary.InvalidationErr)
	}

	return summary, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(exitCode(err))
	}
}
