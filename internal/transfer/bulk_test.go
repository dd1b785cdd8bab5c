package transfer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skyhaul/internal/testsupport"
	"skyhaul/internal/transfer"
)

func writeStub(t *testing.T, name, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func s3Dest(t *testing.T) *transfer.BucketDestination {
	t.Helper()
	return transfer.NewBucketDestination(testsupport.NewBucket(t), "s3://imagery-archive", "")
}

func TestS5cmdAvailable(t *testing.T) {
	ok := writeStub(t, "s5cmd", "#!/bin/sh\nexit 0\n")
	s := &transfer.S5cmd{Binary: ok}
	if !s.Available(context.Background()) {
		t.Fatal("expected stub binary to be available")
	}

	missing := &transfer.S5cmd{Binary: "definitely-not-a-real-binary"}
	if missing.Available(context.Background()) {
		t.Fatal("expected missing binary to be unavailable")
	}
}

func TestS5cmdTransferWritesManifest(t *testing.T) {
	captured := filepath.Join(t.TempDir(), "manifest-copy.txt")
	stub := writeStub(t, "s5cmd", fmt.Sprintf("#!/bin/sh\ncp \"$4\" %q\nexit 0\n", captured))

	s := &transfer.S5cmd{Binary: stub, Workers: 4}
	tasks := []transfer.Task{
		{URL: "https://example.com/dl/a.tif", Key: "basemaps/Kericho/2024_01/a.tif"},
		{URL: "https://example.com/dl/b.tif", Key: "basemaps/Kericho/2024_01/b.tif"},
	}

	results, err := s.Transfer(context.Background(), tasks, s3Dest(t))
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, result := range results {
		if result.State != transfer.StateDownloaded {
			t.Fatalf("expected downloaded, got %s", result.State)
		}
	}

	manifest, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("read captured manifest: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(manifest)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 manifest lines, got %d: %q", len(lines), manifest)
	}
	want := `cp "https://example.com/dl/a.tif" "s3://imagery-archive/basemaps/Kericho/2024_01/a.tif"`
	if lines[0] != want {
		t.Fatalf("manifest line = %q, want %q", lines[0], want)
	}
}

func TestS5cmdTransferMapsExitFailureOntoTasks(t *testing.T) {
	stub := writeStub(t, "s5cmd", "#!/bin/sh\necho boom >&2\nexit 1\n")

	s := &transfer.S5cmd{Binary: stub}
	tasks := []transfer.Task{{URL: "https://example.com/a.tif", Key: "a.tif"}}

	results, err := s.Transfer(context.Background(), tasks, s3Dest(t))
	if err != nil {
		t.Fatalf("expected results, not a run error: %v", err)
	}
	if results[0].State != transfer.StateFailed || !errors.Is(results[0].Err, transfer.ErrTransferFailed) {
		t.Fatalf("expected failed result with error, got %#v", results[0])
	}
}

func TestS5cmdTransferRejectsNonS3Destination(t *testing.T) {
	stub := writeStub(t, "s5cmd", "#!/bin/sh\nexit 0\n")
	s := &transfer.S5cmd{Binary: stub}

	dest := transfer.NewDirDestination(t.TempDir())
	if _, err := s.Transfer(context.Background(), []transfer.Task{{URL: "u", Key: "k"}}, dest); err == nil {
		t.Fatal("expected error for non-s3 destination")
	}
}

type fakeTransfer struct {
	name      string
	available bool
	err       error
	state     transfer.State
	calls     int
}

func (f *fakeTransfer) Name() string                   { return f.name }
func (f *fakeTransfer) Available(context.Context) bool { return f.available }

func (f *fakeTransfer) Transfer(_ context.Context, tasks []transfer.Task, _ transfer.Destination) ([]transfer.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	results := make([]transfer.Result, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, transfer.Result{Task: task, State: f.state})
	}
	return results, nil
}

func TestFirstAvailableSkipsUnavailableAndErrored(t *testing.T) {
	unavailable := &fakeTransfer{name: "off", available: false}
	broken := &fakeTransfer{name: "broken", available: true, err: errors.New("cannot run")}
	working := &fakeTransfer{name: "working", available: true, state: transfer.StateDownloaded}

	tasks := []transfer.Task{{URL: "u", Key: "k"}}
	results := transfer.FirstAvailable(context.Background(), nil, tasks, transfer.NewDirDestination(t.TempDir()),
		unavailable, broken, working)

	if unavailable.calls != 0 {
		t.Fatal("unavailable transfer should never be invoked")
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Fatalf("expected fallthrough, got broken=%d working=%d", broken.calls, working.calls)
	}
	if len(results) != 1 || results[0].State != transfer.StateDownloaded {
		t.Fatalf("unexpected results: %#v", results)
	}
}

func TestFirstAvailableEmptyTasks(t *testing.T) {
	working := &fakeTransfer{name: "working", available: true, state: transfer.StateDownloaded}
	results := transfer.FirstAvailable(context.Background(), nil, nil, transfer.NewDirDestination(t.TempDir()), working)
	if results != nil || working.calls != 0 {
		t.Fatalf("expected no work for empty tasks, got %#v calls=%d", results, working.calls)
	}
}
