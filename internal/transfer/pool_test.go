package transfer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"skyhaul/internal/retry"
	"skyhaul/internal/testsupport"
	"skyhaul/internal/transfer"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestPoolDownloadsAllTasks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content of " + r.URL.Path))
	}))
	defer server.Close()

	dest := transfer.NewDirDestination(t.TempDir())
	pool := &transfer.Pool{Concurrency: 2, Policy: fastPolicy()}

	tasks := []transfer.Task{
		{URL: server.URL + "/a", Key: "imgs/a.tiff"},
		{URL: server.URL + "/b", Key: "imgs/b.tiff"},
		{URL: server.URL + "/c", Key: "imgs/c.tiff"},
	}
	results := pool.Download(context.Background(), tasks, dest, false)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	summary := transfer.Summarize(results)
	if summary.Downloaded != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %s", summary)
	}

	data, err := os.ReadFile(dest.Describe("imgs/b.tiff"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "content of /b" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestPoolSkipsExistingUnlessOverwrite(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	ctx := context.Background()
	dest := transfer.NewDirDestination(t.TempDir())
	testsupport.WriteFile(t, dest.Describe("a.tiff"), 4)

	pool := &transfer.Pool{Policy: fastPolicy()}
	tasks := []transfer.Task{{URL: server.URL + "/a", Key: "a.tiff"}}

	results := pool.Download(ctx, tasks, dest, false)
	if results[0].State != transfer.StateSkipped {
		t.Fatalf("expected skip, got %s (%v)", results[0].State, results[0].Err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no fetches for skipped file, got %d", hits.Load())
	}

	results = pool.Download(ctx, tasks, dest, true)
	if results[0].State != transfer.StateDownloaded {
		t.Fatalf("expected overwrite download, got %s (%v)", results[0].State, results[0].Err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 fetch after overwrite, got %d", hits.Load())
	}
}

func TestPoolIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dest := transfer.NewDirDestination(t.TempDir())
	pool := &transfer.Pool{Concurrency: 2, Policy: fastPolicy()}

	tasks := []transfer.Task{
		{URL: server.URL + "/good1", Key: "good1.tiff"},
		{URL: server.URL + "/missing", Key: "missing.tiff"},
		{URL: server.URL + "/good2", Key: "good2.tiff"},
	}
	results := pool.Download(context.Background(), tasks, dest, false)

	summary := transfer.Summarize(results)
	if summary.Downloaded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %s", summary)
	}
	for _, result := range results {
		if result.Task.Key == "missing.tiff" {
			if !errors.Is(result.Err, transfer.ErrTransferFailed) {
				t.Fatalf("error = %v, want wrapped ErrTransferFailed", result.Err)
			}
		}
	}
}

func TestPoolRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Write([]byte("eventually"))
	}))
	defer server.Close()

	dest := transfer.NewDirDestination(t.TempDir())
	pool := &transfer.Pool{Policy: fastPolicy()}

	results := pool.Download(context.Background(), []transfer.Task{
		{URL: server.URL + "/flaky", Key: "flaky.tiff"},
	}, dest, false)

	if results[0].State != transfer.StateDownloaded {
		t.Fatalf("expected eventual success, got %s (%v)", results[0].State, results[0].Err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestPoolReportsResultsAsTheyComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	var observed atomic.Int32
	pool := &transfer.Pool{
		Concurrency: 4,
		Policy:      fastPolicy(),
		OnResult:    func(transfer.Result) { observed.Add(1) },
	}

	tasks := make([]transfer.Task, 5)
	for i := range tasks {
		tasks[i] = transfer.Task{URL: server.URL, Key: "k" + string(rune('a'+i)) + ".tiff"}
	}
	results := pool.Download(context.Background(), tasks, transfer.NewDirDestination(t.TempDir()), false)

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if observed.Load() != 5 {
		t.Fatalf("expected OnResult for every task, got %d", observed.Load())
	}
}

func TestPoolEmptyTasks(t *testing.T) {
	pool := &transfer.Pool{Policy: fastPolicy()}
	results := pool.Download(context.Background(), nil, transfer.NewDirDestination(t.TempDir()), false)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestPoolStoresToBucket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bucket bytes"))
	}))
	defer server.Close()

	ctx := context.Background()
	bucket := testsupport.NewBucket(t)
	dest := transfer.NewBucketDestination(bucket, "mem://", "archive")

	pool := &transfer.Pool{Policy: fastPolicy()}
	results := pool.Download(ctx, []transfer.Task{
		{URL: server.URL, Key: "scenes/a.tiff"},
	}, dest, false)

	if results[0].State != transfer.StateDownloaded {
		t.Fatalf("expected download, got %s (%v)", results[0].State, results[0].Err)
	}
	data, err := bucket.ReadAll(ctx, "archive/scenes/a.tiff")
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(data) != "bucket bytes" {
		t.Fatalf("unexpected object content: %q", data)
	}
}
