package app

import "bridge/internal/runs"

// runFeed owns the subscription to one run's watch channel. Updates
// are drained on the UI tick, never blocking the update loop.
type runFeed struct {
	runID   string
	updates <-chan runs.RunUpdate
	cancel  func()
}

func (f *runFeed) Set(runID string, ch <-chan runs.RunUpdate, cancel func()) {
	f.Reset()
	f.runID = runID
	f.updates = ch
	f.cancel = cancel
}

func (f *runFeed) Reset() {
	if f.cancel != nil {
		f.cancel()
	}
	f.runID = ""
	f.updates = nil
	f.cancel = nil
}

func (f *runFeed) Watching(runID string) bool {
	return f.updates != nil && f.runID == runID
}

// ConsumeTick drains pending updates and returns the newest one. A
// closed channel means the subscription settled; the feed forgets it.
func (f *runFeed) ConsumeTick() (latest runs.RunUpdate, got bool, closed bool) {
	if f.updates == nil {
		return runs.RunUpdate{}, false, false
	}
	for i := 0; i < maxEventsPerTick; i++ {
		select {
		case update, ok := <-f.updates:
			if !ok {
				f.updates = nil
				f.cancel = nil
				return latest, got, true
			}
			latest = update
			got = true
		default:
			return latest, got, false
		}
	}
	return latest, got, false
}

// activeFeed owns the subscription to the global active-run listing.
type activeFeed struct {
	updates <-chan runs.ActiveUpdate
	cancel  func()
}

func (f *activeFeed) Set(ch <-chan runs.ActiveUpdate, cancel func()) {
	f.Reset()
	f.updates = ch
	f.cancel = cancel
}

func (f *activeFeed) Reset() {
	if f.cancel != nil {
		f.cancel()
	}
	f.updates = nil
	f.cancel = nil
}

func (f *activeFeed) ConsumeTick() (latest runs.ActiveUpdate, got bool, closed bool) {
	if f.updates == nil {
		return runs.ActiveUpdate{}, false, false
	}
	for i := 0; i < maxEventsPerTick; i++ {
		select {
		case update, ok := <-f.updates:
			if !ok {
				f.updates = nil
				f.cancel = nil
				return latest, got, true
			}
			latest = update
			got = true
		default:
			return latest, got, false
		}
	}
	return latest, got, false
}
