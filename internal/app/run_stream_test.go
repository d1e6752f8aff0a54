package app

import (
	"strconv"
	"testing"

	"bridge/internal/runs"
	"bridge/internal/types"
)

func TestRunFeedConsumeTickKeepsLatest(t *testing.T) {
	t.Parallel()
	ch := make(chan runs.RunUpdate, 4)
	for i := 0; i < 3; i++ {
		ch <- runs.RunUpdate{Run: &types.AgentRun{ID: strconv.Itoa(i)}}
	}
	var feed runFeed
	feed.Set("r1", ch, func() {})

	update, got, closed := feed.ConsumeTick()
	if !got || closed {
		t.Fatalf("got=%v closed=%v", got, closed)
	}
	if update.Run.ID != "2" {
		t.Fatalf("latest update = %q, want last pushed", update.Run.ID)
	}

	if _, got, _ := feed.ConsumeTick(); got {
		t.Fatal("drained feed should yield nothing")
	}
	if !feed.Watching("r1") {
		t.Fatal("feed should still be subscribed")
	}
}

func TestRunFeedConsumeTickObservesClose(t *testing.T) {
	t.Parallel()
	ch := make(chan runs.RunUpdate, 1)
	ch <- runs.RunUpdate{Run: &types.AgentRun{ID: "final"}}
	close(ch)
	var feed runFeed
	feed.Set("r1", ch, func() {})

	update, got, closed := feed.ConsumeTick()
	if !got || !closed {
		t.Fatalf("got=%v closed=%v, want both", got, closed)
	}
	if update.Run.ID != "final" {
		t.Fatalf("latest before close = %q", update.Run.ID)
	}
	if feed.Watching("r1") {
		t.Fatal("settled feed should forget its subscription")
	}
}

func TestRunFeedConsumeTickCapsPerTick(t *testing.T) {
	t.Parallel()
	ch := make(chan runs.RunUpdate, 32)
	for i := 0; i < maxEventsPerTick+4; i++ {
		ch <- runs.RunUpdate{Run: &types.AgentRun{ID: strconv.Itoa(i)}}
	}
	var feed runFeed
	feed.Set("r1", ch, func() {})

	update, got, _ := feed.ConsumeTick()
	if !got {
		t.Fatal("expected updates")
	}
	if update.Run.ID != strconv.Itoa(maxEventsPerTick-1) {
		t.Fatalf("first tick consumed %q, want %d updates", update.Run.ID, maxEventsPerTick)
	}

	update, got, _ = feed.ConsumeTick()
	if !got || update.Run.ID != strconv.Itoa(maxEventsPerTick+3) {
		t.Fatalf("second tick latest = %+v got=%v", update.Run, got)
	}
}

func TestRunFeedSetCancelsPrevious(t *testing.T) {
	t.Parallel()
	var first, second int
	ch1 := make(chan runs.RunUpdate)
	ch2 := make(chan runs.RunUpdate)

	var feed runFeed
	feed.Set("a", ch1, func() { first++ })
	feed.Set("b", ch2, func() { second++ })
	if first != 1 {
		t.Fatalf("first cancel called %d times", first)
	}
	if feed.Watching("a") || !feed.Watching("b") {
		t.Fatal("feed should track the newest subscription")
	}

	feed.Reset()
	if second != 1 {
		t.Fatalf("second cancel called %d times", second)
	}
	if feed.Watching("b") {
		t.Fatal("reset feed should not be watching")
	}
}

func TestActiveFeedConsumeTick(t *testing.T) {
	t.Parallel()
	ch := make(chan runs.ActiveUpdate, 2)
	ch <- runs.ActiveUpdate{Runs: []types.AgentRun{{ID: "one"}}}
	ch <- runs.ActiveUpdate{Runs: []types.AgentRun{{ID: "one"}, {ID: "two"}}}

	var feed activeFeed
	feed.Set(ch, func() {})
	update, got, closed := feed.ConsumeTick()
	if !got || closed {
		t.Fatalf("got=%v closed=%v", got, closed)
	}
	if len(update.Runs) != 2 {
		t.Fatalf("latest active set has %d runs", len(update.Runs))
	}

	close(ch)
	if _, _, closed := feed.ConsumeTick(); !closed {
		t.Fatal("expected closed feed")
	}
}
