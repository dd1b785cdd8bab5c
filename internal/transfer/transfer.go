package transfer

import "fmt"

// Task is one file to move: a source URL and the destination key it lands at.
type Task struct {
	URL string
	Key string
}

// State is the outcome of a single task.
type State string

const (
	StateDownloaded State = "downloaded"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

// Result pairs a task with its outcome.
type Result struct {
	Task  Task
	State State
	Err   error
}

// Summary counts outcomes across a batch of results.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// failedResult wraps the cause with ErrTransferFailed so callers can
// classify failures with errors.Is.
func failedResult(task Task, err error) Result {
	return Result{Task: task, State: StateFailed, Err: fmt.Errorf("%w: %w", ErrTransferFailed, err)}
}

// Summarize tallies results into a summary.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.State {
		case StateDownloaded:
			s.Downloaded++
		case StateSkipped:
			s.Skipped++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}

// Add accumulates another summary.
func (s *Summary) Add(other Summary) {
	s.Downloaded += other.Downloaded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Total returns the number of tasks the summary covers.
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

func (s Summary) String() string {
	return fmt.Sprintf("%d downloaded, %d skipped, %d failed", s.Downloaded, s.Skipped, s.Failed)
}
