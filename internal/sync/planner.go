package sync

import (
	"log/slog"
	"path"
	"strings"

	"github.com/OndrejSlamecka/s5upload/internal/cachecontrol"
)

// Planner turns a local tree and a remote listing into a Plan.
type Planner struct {
	Rules cachecontrol.Rules
	// Prefix is prepended to every key. Leading and trailing slashes are ignored.
	Prefix string
	// Exclude holds doublestar globs of relative paths to leave out.
	Exclude []string
}

// Key returns the object key for a slash separated relative path.
func (p *Planner) Key(rel string) string {
	prefix := strings.Trim(p.Prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// Scan walks root with the planner's exclude globs.
func (p *Planner) Scan(root string) ([]LocalFile, error) {
	return Scan(root, p.Exclude)
}

// Plan walks root and returns the uploads needed to bring the bucket in line with
// it. The listing is only read. The pass is all-or-nothing: on error no plan is
// returned.
func (p *Planner) Plan(root string, remote Listing) (Plan, error) {
	files, err := p.Scan(root)
	if err != nil {
		return nil, err
	}
	return p.PlanFiles(files, remote)
}

// PlanFiles is Plan over files that were already scanned.
func (p *Planner) PlanFiles(files []LocalFile, remote Listing) (Plan, error) {
	plan := Plan{}
	for _, f := range files {
		key := p.Key(f.RelPath)

		var obj *RemoteObject
		reason := ReasonNew
		if r, ok := remote[key]; ok {
			obj = &r
			reason = ReasonChanged
		}

		if !NeedsUpload(f, obj) {
			slog.Debug("plan", "key", key, "status", "unchanged")
			continue
		}

		cc, err := p.Rules.Resolve(f.RelPath)
		if err != nil {
			return nil, err
		}

		slog.Debug("plan", "key", key, "reason", reason, "cache_control", cc)
		plan = append(plan, Action{
			Key:          key,
			File:         f,
			CacheControl: cc,
			Reason:       reason,
		})
	}

	return plan, nil
}
