package queue

import (
	"testing"
	"time"

	"github.com/tinymush/coremush/pkg/gamedb"
)

type fakeCache struct {
	money    map[gamedb.DBRef]int
	depth    map[gamedb.DBRef]int
	qmax     map[gamedb.DBRef]int
	trims    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{money: map[gamedb.DBRef]int{}, depth: map[gamedb.DBRef]int{}, qmax: map[gamedb.DBRef]int{}}
}

func (c *fakeCache) AddMoney(player gamedb.DBRef, delta int, allowNegative bool) bool {
	if !allowNegative && c.money[player]+delta < 0 {
		return false
	}
	c.money[player] += delta
	return true
}
func (c *fakeCache) QueueDepth(player gamedb.DBRef) int { return c.depth[player] }
func (c *fakeCache) QueueMax(player gamedb.DBRef, fallback int) int {
	if m, ok := c.qmax[player]; ok {
		return m
	}
	return fallback
}
func (c *fakeCache) AdjustQueueDepth(player gamedb.DBRef, delta int) { c.depth[player] += delta }
func (c *fakeCache) Trim() int                                       { c.trims++; return 0 }

func TestSetupAssignsIncreasingPIDs(t *testing.T) {
	q := New(newFakeCache())
	e1 := &Entry{Player: 5, Command: "look"}
	e2 := &Entry{Player: 5, Command: "look"}
	p1, err := q.Setup(e1)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	p2, err := q.Setup(e2)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p2 <= p1 {
		t.Fatalf("expected increasing pids, got %d then %d", p1, p2)
	}
}

func TestSetupRejectsHalted(t *testing.T) {
	q := New(newFakeCache())
	q.Halted = func(obj gamedb.DBRef) bool { return obj == 5 }
	_, err := q.Setup(&Entry{Player: 5, Command: "look"})
	if err != ErrHalted {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
}

func TestSetupRejectsInsufficientFunds(t *testing.T) {
	q := New(newFakeCache())
	q.WaitCost = 5
	q.MachineCost = 0 // no surcharge; WaitCost alone exceeds the zero balance
	_, err := q.Setup(&Entry{Player: 5, Command: "look"})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestSetupRejectsOverQuota(t *testing.T) {
	cache := newFakeCache()
	cache.qmax[5] = 1
	cache.depth[5] = 1
	q := New(cache)
	_, err := q.Setup(&Entry{Player: 5, Command: "look"})
	if err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestTickPromotesDueWaitEntries(t *testing.T) {
	q := New(newFakeCache())
	e := &Entry{Player: 5, Command: "look", WaitUntil: time.Now().Add(-time.Second)}
	if _, err := q.Setup(e); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	popped := q.Tick(0)
	if len(popped) != 1 || popped[0] != e {
		t.Fatalf("expected e promoted and popped, got %v", popped)
	}
}

func TestTickRespectsPerPlayerQuota(t *testing.T) {
	q := New(newFakeCache())
	for i := 0; i < 3; i++ {
		if _, err := q.Setup(&Entry{Player: 5, Command: "look"}); err != nil {
			t.Fatalf("Setup: %v", err)
		}
	}
	popped := q.Tick(2)
	if len(popped) != 2 {
		t.Fatalf("expected quota of 2 entries this tick, got %d", len(popped))
	}
	ready, _, _ := q.Stats()
	if ready != 1 {
		t.Fatalf("expected 1 entry left in ready, got %d", ready)
	}
}

func TestNotifyWakesSemaphoreWaiters(t *testing.T) {
	q := New(newFakeCache())
	e := &Entry{Player: 5, Command: "look", SemObj: 10, SemAttr: 43}
	if _, err := q.Setup(e); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	woken := q.Notify(10, 43, 1)
	if woken != 1 {
		t.Fatalf("expected 1 woken, got %d", woken)
	}
	popped := q.Tick(0)
	if len(popped) != 1 || popped[0] != e {
		t.Fatalf("expected woken entry to be ready, got %v", popped)
	}
}

func TestHaltRemovesPid(t *testing.T) {
	q := New(newFakeCache())
	e := &Entry{Player: 5, Command: "look"}
	pid, _ := q.Setup(e)
	if !q.Halt(pid) {
		t.Fatal("expected Halt to succeed")
	}
	if q.Halt(pid) {
		t.Fatal("expected second Halt on same pid to fail")
	}
	if q.WaitPid(pid) {
		t.Fatal("expected WaitPid to report the pid gone")
	}
}

func TestHaltPlayerRemovesAllEntries(t *testing.T) {
	q := New(newFakeCache())
	q.Setup(&Entry{Player: 5, Command: "a"})
	q.Setup(&Entry{Player: 5, Command: "b"})
	q.Setup(&Entry{Player: 6, Command: "c"})
	removed := q.HaltPlayer(5)
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	ready, _, _ := q.Stats()
	if ready != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", ready)
	}
}

func TestDrainRemovesSemaphoreEntriesForObject(t *testing.T) {
	q := New(newFakeCache())
	q.Setup(&Entry{Player: 5, Command: "a", SemObj: 10, SemAttr: 1})
	q.Setup(&Entry{Player: 6, Command: "b", SemObj: 10, SemAttr: 2})
	removed := q.Drain(10, 0)
	if removed != 2 {
		t.Fatalf("expected 2 drained, got %d", removed)
	}
}
