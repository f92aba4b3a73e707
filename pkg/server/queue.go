package server

import (
	"log"
	"time"

	"github.com/tinymush/coremush/pkg/gamedb"
	"github.com/tinymush/coremush/pkg/queue"
)

// QueueEntry is the pkg/queue entry type, kept under its old name since
// every command handler in this package constructs one by that name.
type QueueEntry = queue.Entry

// CommandQueue adapts pkg/queue's PID-addressed Queue to the halted-flag
// check it needs from gamedb and to the simpler by-object API this
// package's command handlers already call.
type CommandQueue struct {
	q *queue.Queue
}

// NewCommandQueue creates a queue backed by pcache for its admission
// checks (funds, queue depth) and end-of-tick trim. pcache may be nil in
// tests that don't exercise money/quota behavior.
func NewCommandQueue(pcache *gamedb.PlayerCache) *CommandQueue {
	var pc queue.PlayerCache
	if pcache != nil {
		pc = pcache
	}
	return &CommandQueue{q: queue.New(pc)}
}

// BindHalted wires the queue's halted-object check to db, so Setup's
// first precondition reflects the live HALT flag.
func (cq *CommandQueue) BindHalted(db *gamedb.Database) {
	cq.q.Halted = func(obj gamedb.DBRef) bool {
		o, ok := db.Objects[obj]
		return ok && o.HasFlag(gamedb.FlagHalt)
	}
}

// Add queues a command for immediate execution.
func (cq *CommandQueue) Add(entry *QueueEntry) {
	if _, err := cq.q.Setup(entry); err != nil {
		log.Printf("QUEUE: dropping entry for #%d: %v", entry.Player, err)
	}
}

// AddWait queues a command for delayed execution.
func (cq *CommandQueue) AddWait(entry *QueueEntry) {
	cq.Add(entry)
}

// AddSemaphore queues a command waiting on a semaphore.
func (cq *CommandQueue) AddSemaphore(entry *QueueEntry) {
	cq.Add(entry)
}

// NotifySemaphore wakes up commands waiting on a semaphore.
func (cq *CommandQueue) NotifySemaphore(obj gamedb.DBRef, attr int, count int) int {
	return cq.q.Notify(obj, attr, count)
}

// DrainSemaphore removes all commands waiting on a semaphore.
func (cq *CommandQueue) DrainSemaphore(obj gamedb.DBRef, attr int) int {
	return cq.q.Drain(obj, attr)
}

// DrainObject removes all semaphore and wait-queue entries for an object.
func (cq *CommandQueue) DrainObject(obj gamedb.DBRef, semAttr int) int {
	removed := cq.q.Drain(obj, semAttr)
	removed += cq.q.HaltPlayer(obj)
	return removed
}

// PromoteReady promotes due wait-queue entries into ready without
// draining any of them; used by callers that want the side effect of
// promotion without popping entries for execution this cycle.
func (cq *CommandQueue) PromoteReady() int {
	return cq.q.PromoteWait()
}

// PopImmediate returns and removes the next ready command, or nil. The
// entry is fully retired from queue bookkeeping (pid, queue depth, text
// budget) as part of this call, matching the one-shot semantics callers
// rely on: softcode.go's ProcessQueue runs the returned entry
// synchronously right after popping it, so there is no separate
// completion signal to wait for.
func (cq *CommandQueue) PopImmediate() *QueueEntry {
	e := cq.q.PopReady()
	if e == nil {
		return nil
	}
	cq.q.Finish(e)
	return e
}

// HaltPlayer removes all queued commands for a player/object.
func (cq *CommandQueue) HaltPlayer(player gamedb.DBRef) int {
	return cq.q.HaltPlayer(player)
}

// HaltAll removes all queued commands from every list.
func (cq *CommandQueue) HaltAll() int {
	return cq.q.HaltAll()
}

// CountByOwner returns how many commands are queued for a given owner.
func (cq *CommandQueue) CountByOwner(db *gamedb.Database, owner gamedb.DBRef) int {
	return cq.q.CountByOwner(db, owner)
}

// Stats returns queue size info.
func (cq *CommandQueue) Stats() (immediate, waiting, semaphore int) {
	return cq.q.Stats()
}

// Peek returns up to n entries from all queues for inspection.
func (cq *CommandQueue) Peek(n int) []*QueueEntry {
	return cq.q.Peek(n)
}

// newWaitEntry is a convenience matching the teacher's call sites that
// build a QueueEntry with WaitUntil set from a duration.
func newWaitEntry(e *QueueEntry, after time.Duration) *QueueEntry {
	e.WaitUntil = time.Now().Add(after)
	return e
}
