package app

import (
	"sync"

	"bridge/internal/runs"
)

// FailureFeed collects command failures for the dashboard. It is
// handed to the run gateway as its notifier; the UI drains it on the
// tick and surfaces each failure as a toast.
type FailureFeed struct {
	mu      sync.Mutex
	pending []failureNotice
}

type failureNotice struct {
	op      string
	failure runs.Failure
}

func NewFailureFeed() *FailureFeed {
	return &FailureFeed{}
}

func (f *FailureFeed) NotifyFailure(op string, failure runs.Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, failureNotice{op: op, failure: failure})
}

func (f *FailureFeed) drain() []failureNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}
