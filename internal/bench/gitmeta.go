package bench

import (
	git "github.com/go-git/go-git/v5"
)

// GitMeta mirrors what `git rev-parse HEAD`, the branch name, and
// `git status --porcelain` would report for the working tree the run
// started from.
type GitMeta struct {
	Head   string
	Branch string
	Dirty  *bool
}

// LookupGit resolves repository metadata for dir. Every lookup failure
// leaves the corresponding field empty: benchmark recording must work in a
// bare checkout, a tarball, or anywhere else that is not a git repository.
func LookupGit(dir string) GitMeta {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return GitMeta{}
	}

	var meta GitMeta
	if head, err := repo.Head(); err == nil {
		meta.Head = head.Hash().String()
		if head.Name().IsBranch() {
			meta.Branch = head.Name().Short()
		}
	}
	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			dirty := !status.IsClean()
			meta.Dirty = &dirty
		}
	}
	return meta
}
