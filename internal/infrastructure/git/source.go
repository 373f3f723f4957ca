package git

import (
	"bytes"
	"context"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/ports"
)

// recentRange is the reference point for change analysis.
const recentRange = "HEAD~1..HEAD"

// Source answers version-control questions by shelling out to git. Every
// failure degrades to an empty answer.
type Source struct {
	dir    string
	runner ports.ToolRunner
	logger ports.Logger
}

// NewSource runs git in dir through runner, which bounds each call.
func NewSource(dir string, runner ports.ToolRunner, logger ports.Logger) *Source {
	return &Source{dir: dir, runner: runner, logger: logger}
}

// StagedFiles lists paths in the index.
func (s *Source) StagedFiles(ctx context.Context) []string {
	return lines(s.git(ctx, "diff", "--cached", "--name-only"))
}

// RecentChanges describes the last commit: changed files with line counts,
// the current branch and commit metadata.
func (s *Source) RecentChanges(ctx context.Context) domain.ChangeSet {
	changes := domain.ChangeSet{
		Branch: strings.TrimSpace(s.git(ctx, "branch", "--show-current")),
		Commit: parseCommit(s.git(ctx, "log", "-1", "--format=%H|%an|%ae|%s")),
	}
	if changes.Branch == "" {
		changes.Branch = "unknown"
	}
	files, err := parseUnifiedDiff([]byte(s.git(ctx, "diff", "--no-color", recentRange)))
	if err != nil || len(files) == 0 {
		if err != nil {
			s.logger.Debug("diff parse failed, falling back to name-only", map[string]interface{}{"error": err.Error()})
		}
		files = nil
		for _, name := range lines(s.git(ctx, "diff", "--name-only", recentRange)) {
			files = append(files, domain.ChangedFile{Path: name})
		}
	}
	changes.Files = files
	return changes
}

func (s *Source) git(ctx context.Context, args ...string) string {
	if !s.runner.Available("git") {
		return ""
	}
	out, err := s.runner.Run(ctx, s.dir, "git", args...)
	if err != nil {
		s.logger.Debug("git query failed", map[string]interface{}{"args": strings.Join(args, " "), "error": err.Error()})
		return ""
	}
	return string(out)
}

// parseUnifiedDiff turns git diff output into per-file added/deleted counts.
func parseUnifiedDiff(data []byte) ([]domain.ChangedFile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	fileDiffs, err := diff.ParseMultiFileDiff(data)
	if err != nil {
		return nil, err
	}
	files := make([]domain.ChangedFile, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := diffPath(fd.NewName)
		if path == "" {
			path = diffPath(fd.OrigName)
		}
		if path == "" {
			continue
		}
		file := domain.ChangedFile{Path: path}
		for _, hunk := range fd.Hunks {
			for _, line := range bytes.Split(hunk.Body, []byte("\n")) {
				switch {
				case bytes.HasPrefix(line, []byte("+")):
					file.Added++
				case bytes.HasPrefix(line, []byte("-")):
					file.Deleted++
				}
			}
		}
		files = append(files, file)
	}
	return files, nil
}

func diffPath(name string) string {
	if name == "" || name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

func parseCommit(out string) domain.CommitInfo {
	parts := strings.SplitN(strings.TrimSpace(out), "|", 4)
	if len(parts) < 4 {
		return domain.CommitInfo{}
	}
	return domain.CommitInfo{Hash: parts[0], Author: parts[1], Email: parts[2], Subject: parts[3]}
}

func lines(out string) []string {
	var result []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}

var _ ports.ChangeSource = (*Source)(nil)
