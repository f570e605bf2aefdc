// Package sync decides which files of a local site tree have to be uploaded to a
// bucket and carries those uploads out.
//
// Planning is pure: a Planner walks the local tree once, compares every file with a
// remote listing fetched beforehand, and resolves its Cache-Control value. Any
// planning error aborts the whole pass. Execution is partial-failure tolerant: an
// Executor keeps uploading after individual failures and only invalidates the keys
// that made it to the bucket.
//
// Remote objects without a local counterpart are left alone; nothing is ever deleted.
package sync
