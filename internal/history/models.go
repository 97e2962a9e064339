package history

import (
	"strings"
	"time"
)

// Status summarizes how a run ended.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Run is one recorded conversion.
type Run struct {
	ID           string
	InputPath    string
	OutputRoot   string
	BaseName     string
	Width        int
	Height       int
	BitRate      int64
	Ladder       []string
	Decision     string
	Status       Status
	ErrorClass   string
	ErrorMessage string
	MasterPath   string
	StartedAt    time.Time
	Duration     time.Duration
	Rungs        []RungResult
}

// RungResult is the recorded outcome of one rendition job.
type RungResult struct {
	Rung        string
	Outcome     string
	ExitCode    int
	Detail      string
	Duration    time.Duration
	OutputBytes uint64
}

// Succeeded counts rungs recorded as succeeded.
func (r Run) Succeeded() int {
	n := 0
	for _, rung := range r.Rungs {
		if rung.Outcome == string(StatusSucceeded) {
			n++
		}
	}
	return n
}

func joinLadder(ids []string) string { return strings.Join(ids, ",") }

func splitLadder(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}
