package sync

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OndrejSlamecka/s5upload/internal/cachecontrol"
)

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// writeTree creates files (relative slash path -> content) under a fresh temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testRules(t *testing.T) cachecontrol.Rules {
	t.Helper()
	rules, err := cachecontrol.Compile([]cachecontrol.RuleSpec{
		{Pattern: `\.html$`, Value: "public,max-age=3600"},
		{Pattern: `\.png$`, Value: "public,max-age=31536000"},
		{Pattern: `.*`, Value: "public,max-age=86400"},
	}, cachecontrol.CompileOptions{IgnoreCase: true})
	require.NoError(t, err)
	return rules
}
