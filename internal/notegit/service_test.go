package notegit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestNoteRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Content{
		Title:   "Shopping",
		Content: "# Shopping\n\n- milk",
		Tags:    []string{"errands"},
	}

	first, err := svc.CommitNote("note-1", initial, "avery", "Create note")
	if err != nil {
		t.Fatalf("CommitNote() error = %v", err)
	}
	if first.Hash == "" {
		t.Fatal("expected commit hash")
	}
	if _, err := os.Stat(filepath.Join(tempDir, "note-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	updated := initial
	updated.Content = "# Shopping\n\n- milk\n- eggs"
	second, err := svc.CommitNote("note-1", updated, "avery", "Update note")
	if err != nil {
		t.Fatalf("CommitNote() error = %v", err)
	}

	history, err := svc.History("note-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Hash != second.Hash {
		t.Fatalf("expected newest-first history, got %+v", history)
	}

	old, err := svc.GetContentByHash("note-1", first.Hash)
	if err != nil {
		t.Fatalf("GetContentByHash() error = %v", err)
	}
	if old.Content != initial.Content {
		t.Fatalf("unexpected content at first revision: %+v", old)
	}
	if len(old.Tags) != 1 || old.Tags[0] != "errands" {
		t.Fatalf("expected tags preserved, got %v", old.Tags)
	}
}

func TestHistoryErrorsForUnknownNote(t *testing.T) {
	svc := New(t.TempDir())
	if _, err := svc.History("missing", 10); err == nil {
		t.Fatal("expected error for missing repo")
	}
}

func TestRemoveNoteRepo(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if _, err := svc.CommitNote("note-1", Content{Title: "T", Content: "c"}, "avery", "Create note"); err != nil {
		t.Fatalf("CommitNote() error = %v", err)
	}
	if err := svc.RemoveNoteRepo("note-1"); err != nil {
		t.Fatalf("RemoveNoteRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "note-1")); !os.IsNotExist(err) {
		t.Fatalf("expected repo removed, stat err = %v", err)
	}
}

func TestConcurrentCommitsSameNote(t *testing.T) {
	svc := New(t.TempDir())

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			content := Content{Title: "Note", Content: fmt.Sprintf("revision-%02d", idx)}
			if _, err := svc.CommitNote("note-1", content, "avery", fmt.Sprintf("Commit %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitNote() concurrent error = %v", err)
		}
	}

	history, err := svc.History("note-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != writers {
		t.Fatalf("expected %d commits, got %d", writers, len(history))
	}
}
