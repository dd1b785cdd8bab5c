package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"skyhaul/internal/logging"
	"skyhaul/internal/retry"
)

const defaultPoolWorkers = 8

// Pool downloads files concurrently, streaming each HTTP response into the
// destination.
type Pool struct {
	// Concurrency bounds the number of simultaneous downloads.
	Concurrency int
	// HTTP is the client used for fetches. A nil client gets a default.
	HTTP *http.Client
	// Policy governs retries around each fetch.
	Policy retry.Policy
	// Timeout bounds each task (fetch plus store). Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
	// OnResult, when set, observes each result as it completes. Calls are
	// serialized.
	OnResult func(Result)
}

// Download moves every task to the destination and returns one result per
// task in completion order. Existing keys are skipped unless overwrite is
// set. A failed task never stops its siblings.
func (p *Pool) Download(ctx context.Context, tasks []Task, dest Destination, overwrite bool) []Result {
	if len(tasks) == 0 {
		return nil
	}

	workers := p.Concurrency
	if workers <= 0 {
		workers = defaultPoolWorkers
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	client := p.HTTP
	if client == nil {
		client = &http.Client{}
	}
	policy := p.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	jobs := make(chan Task)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				resultCh <- p.runTask(ctx, client, policy, logger, dest, task, overwrite)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case jobs <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(tasks))
	for result := range resultCh {
		if p.OnResult != nil {
			p.OnResult(result)
		}
		results = append(results, result)
	}
	return results
}

func (p *Pool) runTask(ctx context.Context, client *http.Client, policy retry.Policy, logger *slog.Logger, dest Destination, task Task, overwrite bool) Result {
	taskCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	if !overwrite {
		exists, err := dest.Exists(taskCtx, task.Key)
		if err != nil {
			return failedResult(task, err)
		}
		if exists {
			logger.Debug("destination already has file", logging.String("key", task.Key))
			return Result{Task: task, State: StateSkipped}
		}
	}

	resp, err := p.fetch(taskCtx, client, policy, task.URL)
	if err != nil {
		return failedResult(task, fmt.Errorf("fetch %s: %w", task.Key, err))
	}
	defer resp.Body.Close()

	if err := dest.Store(taskCtx, task.Key, resp.Body); err != nil {
		return failedResult(task, err)
	}

	logger.Debug("stored file", logging.String("key", task.Key))
	return Result{Task: task, State: StateDownloaded}
}

// fetch retries establishing the response; the body is streamed once by the
// caller.
func (p *Pool) fetch(ctx context.Context, client *http.Client, policy retry.Policy, url string) (*http.Response, error) {
	var resp *http.Response
	err := policy.Do(ctx, "download", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		r, err := client.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 200))
			r.Body.Close()
			return &retry.StatusError{Code: r.StatusCode, Body: string(body)}
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
