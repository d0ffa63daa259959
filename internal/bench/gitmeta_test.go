package bench

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepoWithCommit(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add("a.txt"); err != nil {
		t.Fatalf("add: %v", err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return dir, hash.String()
}

func TestLookupGitCleanRepo(t *testing.T) {
	dir, want := initRepoWithCommit(t)

	meta := LookupGit(dir)
	if meta.Head != want {
		t.Errorf("head = %q, want %q", meta.Head, want)
	}
	if meta.Branch == "" {
		t.Error("branch should be resolved for a fresh repo")
	}
	if meta.Dirty == nil || *meta.Dirty {
		t.Errorf("dirty = %v, want clean", meta.Dirty)
	}
}

func TestLookupGitDirtyWorktree(t *testing.T) {
	dir, _ := initRepoWithCommit(t)
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	meta := LookupGit(dir)
	if meta.Dirty == nil || !*meta.Dirty {
		t.Errorf("dirty = %v, want dirty", meta.Dirty)
	}
}

func TestLookupGitOutsideRepo(t *testing.T) {
	meta := LookupGit(t.TempDir())
	if meta.Head != "" || meta.Branch != "" || meta.Dirty != nil {
		t.Errorf("expected zero metadata outside a repo, got %+v", meta)
	}
}
