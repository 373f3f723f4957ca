package git

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/pkg/logger"
)

type scriptedRunner struct {
	available bool
	outputs   map[string]string
	failing   map[string]bool
}

func (r *scriptedRunner) Available(string) bool { return r.available }

func (r *scriptedRunner) Run(_ context.Context, _ string, _ string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	if r.failing[key] {
		return nil, errors.New("exit status 128")
	}
	return []byte(r.outputs[key]), nil
}

const sampleDiff = `diff --git a/src/app.go b/src/app.go
index 1111111..2222222 100644
--- a/src/app.go
+++ b/src/app.go
@@ -1,3 +1,4 @@
 package app
-var a = 1
+var a = 2
+var b = 3
 // end
diff --git a/old.txt b/old.txt
deleted file mode 100644
index 3333333..0000000
--- a/old.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
`

func TestRecentChanges(t *testing.T) {
	runner := &scriptedRunner{available: true, outputs: map[string]string{
		"branch --show-current":          "feature/login\n",
		"log -1 --format=%H|%an|%ae|%s":  "0123456789abcdef|Dev One|dev@example.com|Add login | fix\n",
		"diff --no-color " + recentRange: sampleDiff,
	}}
	src := NewSource("/repo", runner, logger.NewNop())
	changes := src.RecentChanges(context.Background())

	assert.Equal(t, "feature/login", changes.Branch)
	assert.Equal(t, "01234567", changes.Commit.ShortHash())
	assert.Equal(t, "Add login | fix", changes.Commit.Subject)
	assert.Equal(t, []domain.ChangedFile{
		{Path: "src/app.go", Added: 2, Deleted: 1},
		{Path: "old.txt", Deleted: 2},
	}, changes.Files)
	assert.Equal(t, 5, changes.LinesChanged())
}

func TestRecentChangesFallsBackToNameOnly(t *testing.T) {
	runner := &scriptedRunner{available: true, outputs: map[string]string{
		"diff --no-color " + recentRange:  "@@ garbage without file header\n",
		"diff --name-only " + recentRange: "a.py\nb.py\n",
	}}
	changes := NewSource("/repo", runner, logger.NewNop()).RecentChanges(context.Background())
	assert.Equal(t, []string{"a.py", "b.py"}, changes.Paths())
	assert.Equal(t, "unknown", changes.Branch)
}

func TestGitUnavailableDegradesToEmpty(t *testing.T) {
	src := NewSource("/repo", &scriptedRunner{available: false}, logger.NewNop())
	assert.Empty(t, src.StagedFiles(context.Background()))
	changes := src.RecentChanges(context.Background())
	assert.Empty(t, changes.Files)
	assert.Equal(t, "unknown", changes.Branch)
	assert.Empty(t, changes.Commit.Hash)
}

func TestStagedFiles(t *testing.T) {
	runner := &scriptedRunner{available: true, outputs: map[string]string{
		"diff --cached --name-only": "src/a.py\n\n  src/b.js\n",
	}}
	assert.Equal(t, []string{"src/a.py", "src/b.js"}, NewSource("/repo", runner, logger.NewNop()).StagedFiles(context.Background()))

	failing := &scriptedRunner{available: true, failing: map[string]bool{"diff --cached --name-only": true}}
	assert.Empty(t, NewSource("/repo", failing, logger.NewNop()).StagedFiles(context.Background()))
}

func TestDiffPath(t *testing.T) {
	assert.Equal(t, "src/x.go", diffPath("b/src/x.go"))
	assert.Equal(t, "", diffPath("/dev/null"))
	assert.Equal(t, "plain", diffPath("plain"))
}
