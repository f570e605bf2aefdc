package sync

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OndrejSlamecka/s5upload/internal/cachecontrol"
)

func TestPlan_Scenario(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": "<h1>home</h1>",
		"about.html": "<h1>about v2</h1>",
		"logo.png":   "png bytes",
	})
	remote := Listing{
		"about.html": {Key: "about.html", ETag: `"` + md5hex("<h1>about v1</h1>") + `"`, LastModified: time.Now()},
		"logo.png":   {Key: "logo.png", ETag: md5hex("png bytes"), LastModified: time.Now().Add(-time.Hour)},
		"old.html":   {Key: "old.html", ETag: md5hex("gone")},
	}

	p := &Planner{Rules: testRules(t)}
	plan, err := p.Plan(root, remote)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, []string{"about.html", "index.html"}, plan.Keys())

	about, index := plan[0], plan[1]
	assert.Equal(t, ReasonChanged, about.Reason)
	assert.Equal(t, ReasonNew, index.Reason)
	assert.Equal(t, "public,max-age=3600", index.CacheControl)
	assert.Equal(t, filepath.Join(root, "index.html"), index.File.AbsPath)

	for _, a := range plan {
		assert.NotEqual(t, "old.html", a.Key)
		assert.NotEqual(t, "logo.png", a.Key)
	}
}

func TestPlan_AllNewWhenBucketEmpty(t *testing.T) {
	root := writeTree(t, map[string]string{"a.html": "a", "b/c.png": "c", "d.txt": ""})

	p := &Planner{Rules: testRules(t)}
	plan, err := p.Plan(root, Listing{})
	require.NoError(t, err)

	require.Len(t, plan, 3)
	for _, a := range plan {
		assert.Equal(t, ReasonNew, a.Reason, a.Key)
	}
	assert.Equal(t, "public,max-age=31536000", plan[1].CacheControl)
	assert.Equal(t, "public,max-age=86400", plan[2].CacheControl)
	assert.Equal(t, int64(2), plan.Size())
}

func TestPlan_Idempotent(t *testing.T) {
	files := map[string]string{"index.html": "home", "css/a.css": "a{}"}
	root := writeTree(t, files)
	remote := Listing{}
	for rel, content := range files {
		remote[rel] = RemoteObject{Key: rel, ETag: md5hex(content)}
	}

	p := &Planner{Rules: testRules(t)}
	first, err := p.Plan(root, remote)
	require.NoError(t, err)
	second, err := p.Plan(root, remote)
	require.NoError(t, err)

	assert.Empty(t, first)
	assert.Equal(t, first, second)
}

func TestPlan_Prefix(t *testing.T) {
	root := writeTree(t, map[string]string{"index.html": "home", "docs/a.html": "a"})
	remote := Listing{"site/index.html": {Key: "site/index.html", ETag: md5hex("home")}}

	p := &Planner{Rules: testRules(t), Prefix: "/site/"}
	plan, err := p.Plan(root, remote)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, "site/docs/a.html", plan[0].Key)
	assert.Equal(t, "docs/a.html", plan[0].File.RelPath)
}

func TestPlan_Exclude(t *testing.T) {
	root := writeTree(t, map[string]string{"index.html": "home", ".git/HEAD": "ref"})

	p := &Planner{Rules: testRules(t), Exclude: []string{".git"}}
	plan, err := p.Plan(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, plan.Keys())
}

func TestPlan_NoMatchingRuleAbortsPlan(t *testing.T) {
	root := writeTree(t, map[string]string{"index.html": "home", "style.css": "body{}"})
	rules, err := cachecontrol.Compile([]cachecontrol.RuleSpec{{Pattern: `\.html$`, Value: "A"}}, cachecontrol.CompileOptions{})
	require.NoError(t, err)

	p := &Planner{Rules: rules}
	plan, err := p.Plan(root, Listing{})
	assert.Nil(t, plan)

	var noMatch *cachecontrol.NoMatchingRuleError
	require.True(t, errors.As(err, &noMatch))
	assert.Equal(t, "style.css", noMatch.Path)
}

func TestPlan_UnchangedFileNeedsNoRule(t *testing.T) {
	root := writeTree(t, map[string]string{"style.css": "body{}"})
	rules, err := cachecontrol.Compile([]cachecontrol.RuleSpec{{Pattern: `\.html$`, Value: "A"}}, cachecontrol.CompileOptions{})
	require.NoError(t, err)

	p := &Planner{Rules: rules}
	plan, err := p.Plan(root, Listing{"style.css": {ETag: md5hex("body{}")}})
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestPlan_MissingRoot(t *testing.T) {
	p := &Planner{Rules: testRules(t)}
	_, err := p.Plan(filepath.Join(t.TempDir(), "missing"), nil)

	var fsErr *FilesystemError
	assert.ErrorAs(t, err, &fsErr)
}
