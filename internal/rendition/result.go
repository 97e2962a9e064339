package rendition

import (
	"time"

	"hlsladder/internal/ladder"
)

// Outcome is the terminal state of a rendition job.
type Outcome int

const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	if o == Success {
		return "succeeded"
	}
	return "failed"
}

// JobResult records how a single rung's transcode ended.
type JobResult struct {
	Rung    ladder.Rung
	Outcome Outcome
	// Detail explains a failure; empty on success.
	Detail string
	// ExitCode is -1 when the transcoder never produced an exit status.
	ExitCode int
	Duration time.Duration
	Command  []string
	// OutputBytes is the size of the rung directory after a successful run.
	OutputBytes uint64
}

// Succeeded reports whether the rung produced output.
func (r JobResult) Succeeded() bool { return r.Outcome == Success }
