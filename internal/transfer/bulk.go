package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"skyhaul/internal/logging"
)

const (
	defaultBulkBinary  = "s5cmd"
	defaultBulkWorkers = 20
	defaultBulkTimeout = time.Hour
	probeTimeout       = 5 * time.Second
)

// BulkTransfer moves a whole batch of tasks at once.
type BulkTransfer interface {
	Name() string
	// Available reports whether this transfer can run at all.
	Available(ctx context.Context) bool
	// Transfer moves the tasks. An error means the transfer could not run;
	// per-task outcomes live in the results.
	Transfer(ctx context.Context, tasks []Task, dest Destination) ([]Result, error)
}

// S5cmd shells out to the s5cmd binary to push a manifest of URL-to-S3
// copies. It only serves destinations that expose s3:// targets.
type S5cmd struct {
	// Binary is the executable name or path. Empty means "s5cmd".
	Binary string
	// Workers is passed as --numworkers.
	Workers int
	// Timeout bounds the whole batch.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (s *S5cmd) Name() string {
	return "s5cmd"
}

func (s *S5cmd) binary() string {
	if s.Binary != "" {
		return s.Binary
	}
	return defaultBulkBinary
}

// Available probes the binary with a short version check.
func (s *S5cmd) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, s.binary(), "version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// Transfer writes one copy command per task to a temp manifest and runs it
// through s5cmd. s5cmd reports a single exit status for the batch, so that
// status maps onto every task.
func (s *S5cmd) Transfer(ctx context.Context, tasks []Task, dest Destination) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	addr, ok := dest.(S3Addressable)
	if !ok {
		return nil, errors.New("s5cmd: destination has no s3 address")
	}

	manifest, err := os.CreateTemp("", "skyhaul-s5cmd-*.txt")
	if err != nil {
		return nil, fmt.Errorf("s5cmd: create manifest: %w", err)
	}
	manifestPath := manifest.Name()
	defer os.Remove(manifestPath)

	for _, task := range tasks {
		target, ok := addr.S3Target(task.Key)
		if !ok {
			manifest.Close()
			return nil, fmt.Errorf("s5cmd: no s3 target for %s", task.Key)
		}
		if _, err := fmt.Fprintf(manifest, "cp %q %q\n", task.URL, target); err != nil {
			manifest.Close()
			return nil, fmt.Errorf("s5cmd: write manifest: %w", err)
		}
	}
	if err := manifest.Close(); err != nil {
		return nil, fmt.Errorf("s5cmd: close manifest: %w", err)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = defaultBulkWorkers
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultBulkTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Info("running bulk transfer",
		logging.String("binary", s.binary()),
		logging.Int("tasks", len(tasks)),
		logging.Int("workers", workers))

	cmd := exec.CommandContext(runCtx, s.binary(), "--numworkers", strconv.Itoa(workers), "run", manifestPath)
	output, err := cmd.CombinedOutput()

	switch {
	case err == nil:
		return resultsWithState(tasks, StateDownloaded, nil), nil
	case isExitError(err):
		// The binary ran and reported failure for the batch.
		batchErr := fmt.Errorf("%w: s5cmd exited with error: %s", ErrTransferFailed, firstLine(output))
		logger.Warn("bulk transfer reported failure", logging.Error(batchErr))
		return resultsWithState(tasks, StateFailed, batchErr), nil
	default:
		return nil, fmt.Errorf("s5cmd: run: %w", err)
	}
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func firstLine(output []byte) string {
	for i, b := range output {
		if b == '\n' {
			return string(output[:i])
		}
	}
	return string(output)
}

func resultsWithState(tasks []Task, state State, err error) []Result {
	results := make([]Result, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, Result{Task: task, State: state, Err: err})
	}
	return results
}

// PoolTransfer adapts the per-file pool to the bulk interface. It is always
// available and serves as the terminal fallback.
type PoolTransfer struct {
	Pool      *Pool
	Overwrite bool
}

func (p *PoolTransfer) Name() string {
	return "parallel"
}

func (p *PoolTransfer) Available(context.Context) bool {
	return true
}

func (p *PoolTransfer) Transfer(ctx context.Context, tasks []Task, dest Destination) ([]Result, error) {
	return p.Pool.Download(ctx, tasks, dest, p.Overwrite), nil
}

// FirstAvailable runs the tasks through the first transfer that is available
// and completes without a run error. A transfer that cannot run falls
// through to the next one.
func FirstAvailable(ctx context.Context, logger *slog.Logger, tasks []Task, dest Destination, transfers ...BulkTransfer) []Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(tasks) == 0 {
		return nil
	}

	for _, t := range transfers {
		if !t.Available(ctx) {
			logger.Debug("transfer not available", logging.String("transfer", t.Name()))
			continue
		}
		results, err := t.Transfer(ctx, tasks, dest)
		if err != nil {
			logger.Warn("transfer could not run, trying next",
				logging.String("transfer", t.Name()),
				logging.Error(err))
			continue
		}
		return results
	}
	return nil
}
