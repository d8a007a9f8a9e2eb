package pipeline

import (
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("IEC_61000-4-2.json", []byte("{}"))
	if job.DocID != "IEC_61000-4-2" {
		t.Errorf("expected doc id from file stem, got %q", job.DocID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if len(job.ID) != 36 {
		t.Errorf("expected uuid job id, got %q", job.ID)
	}
	if other := NewJob("x.json", nil); other.ID == job.ID {
		t.Error("expected unique job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusConverting, "decoding"},
		{StatusConverting, "converting"},
		{StatusChunking, "chunking"},
		{StatusIndexing, "indexing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
	if !job.Snapshot().Done() {
		t.Error("expected completed job to be done")
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("decode: unexpected EOF")
	job.AddError("index: closed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "decode: unexpected EOF" {
		t.Errorf("expected first error %q, got %q", "decode: unexpected EOF", snap.Progress.Errors[0])
	}

	job.AddError("third")
	if len(snap.Progress.Errors) != 2 {
		t.Error("expected snapshot errors to be a copy")
	}
}

func TestJob_ProgressSetters(t *testing.T) {
	job := &Job{ID: "progress-test", UpdatedAt: time.Now()}
	job.SetIndexed(7, true)
	job.SetContentHash("abc")

	snap := job.Snapshot()
	if snap.Progress.ChunksIndexed != 7 || !snap.Progress.ScopeFound {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.ContentHash != "abc" {
		t.Errorf("expected content hash %q, got %q", "abc", snap.ContentHash)
	}
	if snap.Done() {
		t.Error("expected job without terminal status not to be done")
	}
}

func TestJob_FileDataReleased(t *testing.T) {
	job := NewJob("a.json", []byte("file content here"))
	if string(job.FileData()) != "file content here" {
		t.Errorf("expected file data, got %q", job.FileData())
	}
	job.releaseData()
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
