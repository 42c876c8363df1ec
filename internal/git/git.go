package git

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// GitStatus describes how git sees a tome store file
type GitStatus struct {
	IsRepo  bool
	Tracked bool // committed or staged: the encrypted store is in history
	Ignored bool
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckStoreFile reports the git status of the store file at path
func CheckStoreFile(path string) *GitStatus {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	status := &GitStatus{}
	if !IsGitRepo(dir) {
		return status
	}
	status.IsRepo = true
	status.Tracked = IsTracked(dir, name)
	status.Ignored = IsIgnored(dir, name)

	return status
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case status.Tracked:
		result.WriteString("   warning: store file is tracked by git, anyone with the repository can attack the master password offline\n")
	case !status.Ignored:
		result.WriteString("   warning: store file is inside a git work tree and not in .gitignore\n")
	default:
		result.WriteString("   ok: store file is ignored by git\n")
	}

	return result.String()
}
