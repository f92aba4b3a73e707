// Package queue implements the C8 PID-addressed cooperative command
// queue (spec §4.8/§5): a ready FIFO, a time-sorted wait list, an
// unordered semaphore list, and a pidTable that lets any entry be
// addressed, halted, or waited-on by a single integer handle instead of
// by object identity alone (an object can have many entries in flight).
package queue

import (
	"math/bits"
	"sync"
	"time"

	"github.com/tinymush/coremush/pkg/eval"
	"github.com/tinymush/coremush/pkg/gamedb"
)

// PID addresses a single queue entry for its entire lifetime, from
// Setup through execution or Halt.
type PID int64

// Errors Setup can return; the caller (pkg/server) decides how to
// surface them to the triggering player.
type SetupError string

func (e SetupError) Error() string { return string(e) }

const (
	ErrHalted        SetupError = "queue: object is halted"
	ErrInsufficientFunds SetupError = "queue: insufficient funds to queue command"
	ErrQueueFull     SetupError = "queue: queue-depth quota exceeded"
	ErrPIDExhausted  SetupError = "queue: pid space exhausted"
	ErrTextTooLarge  SetupError = "queue: queued command text exceeds budget"
)

// MaxQueueTextBytes bounds the total command text held live across the
// whole queue; Setup's fifth precondition rejects an admission that
// would push the running total past it, computed with a carry-checked
// add so a pathological flood of huge command strings can't wrap the
// running total instead of being rejected.
const MaxQueueTextBytes = 1 << 24

// PlayerCache is the subset of C4 the queue needs: a waitcost/surcharge
// debit and an eviction sweep, called once per Tick.
type PlayerCache interface {
	AddMoney(player gamedb.DBRef, delta int, allowNegative bool) bool
	QueueDepth(player gamedb.DBRef) int
	QueueMax(player gamedb.DBRef, fallback int) int
	AdjustQueueDepth(player gamedb.DBRef, delta int)
	Trim() int
}

// Entry is a single queued command, addressable by PID once Setup has
// admitted it.
type Entry struct {
	PID       PID
	Player    gamedb.DBRef
	Cause     gamedb.DBRef
	Caller    gamedb.DBRef
	Command   string
	Args      []string
	RData     *eval.RegisterData
	WaitUntil time.Time
	SemObj    gamedb.DBRef
	SemAttr   int
	halted    bool
}

// Queue is the C8 component. Halted reports whether obj currently has
// its HALT flag set (Setup's first precondition); callers (pkg/server)
// supply it since flag storage lives in gamedb.
type Queue struct {
	mu sync.Mutex

	ready []*Entry
	wait  []*Entry
	sem   []*Entry

	pidTable map[PID]*Entry
	nextPID  PID

	Halted      func(obj gamedb.DBRef) bool
	WaitCost    int
	MachineCost int // 1-in-MachineCost commands incur an extra waitcost surcharge
	DefaultQMax int

	pcache PlayerCache

	tickCount int
	textBytes uint64
}

// New returns an empty Queue. pcache satisfies Setup's funds/depth
// preconditions and Tick's end-of-cycle trim.
func New(pcache PlayerCache) *Queue {
	return &Queue{
		pidTable:    make(map[PID]*Entry),
		pcache:      pcache,
		WaitCost:    0,
		MachineCost: 10,
		DefaultQMax: 100,
		Halted:      func(gamedb.DBRef) bool { return false },
	}
}

// Setup admits entry into the queue (semaphore list when SemObj is set and
// SemAttr is non-zero, else wait list when WaitUntil is set, else ready),
// enforcing five preconditions in order:
//  1. the owning object is not halted
//  2. waitcost (plus a 1-in-MachineCost surcharge) can be debited
//  3. the object's live queue depth is under its quota
//  4. the pid space is not exhausted
//  5. the live command text stays within MaxQueueTextBytes
//
// Any failure leaves the queue and player cache untouched and returns
// the corresponding Err*.
func (q *Queue) Setup(e *Entry) (PID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.Halted(e.Player) {
		return 0, ErrHalted
	}

	cost := q.WaitCost
	q.tickCount++
	if q.MachineCost > 0 && q.tickCount%q.MachineCost == 0 {
		cost++
	}
	if cost > 0 && q.pcache != nil {
		if !q.pcache.AddMoney(e.Player, -cost, false) {
			return 0, ErrInsufficientFunds
		}
	}

	if q.pcache != nil {
		max := q.pcache.QueueMax(e.Player, q.DefaultQMax)
		if q.pcache.QueueDepth(e.Player) >= max {
			if cost > 0 {
				q.pcache.AddMoney(e.Player, cost, true) // refund precondition 2's debit
			}
			return 0, ErrQueueFull
		}
	}

	if q.nextPID == PID(^uint64(0)>>1) {
		if cost > 0 {
			q.pcache.AddMoney(e.Player, cost, true) // refund precondition 2's debit
		}
		return 0, ErrPIDExhausted
	}

	newTotal, carry := bits.Add64(q.textBytes, uint64(len(e.Command)), 0)
	if carry != 0 || newTotal > MaxQueueTextBytes {
		if cost > 0 {
			q.pcache.AddMoney(e.Player, cost, true) // refund precondition 2's debit
		}
		return 0, ErrTextTooLarge
	}
	q.textBytes = newTotal

	q.nextPID++
	e.PID = q.nextPID
	q.pidTable[e.PID] = e

	if q.pcache != nil {
		q.pcache.AdjustQueueDepth(e.Player, 1)
	}

	switch {
	case e.SemObj != gamedb.Nothing && e.SemAttr != 0:
		q.sem = append(q.sem, e)
	case !e.WaitUntil.IsZero():
		q.insertWaitLocked(e)
	default:
		q.ready = append(q.ready, e)
	}
	return e.PID, nil
}

func (q *Queue) insertWaitLocked(e *Entry) {
	for i, w := range q.wait {
		if e.WaitUntil.Before(w.WaitUntil) {
			q.wait = append(q.wait[:i+1], q.wait[i:]...)
			q.wait[i] = e
			return
		}
	}
	q.wait = append(q.wait, e)
}

// release removes e from whichever list currently holds it without
// touching pidTable or player-cache depth bookkeeping (callers do that).
func (q *Queue) release(e *Entry) {
	q.ready = removeEntry(q.ready, e)
	q.wait = removeEntry(q.wait, e)
	q.sem = removeEntry(q.sem, e)
}

func removeEntry(list []*Entry, target *Entry) []*Entry {
	out := list[:0:0]
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

func (q *Queue) finish(e *Entry) {
	delete(q.pidTable, e.PID)
	if q.textBytes >= uint64(len(e.Command)) {
		q.textBytes -= uint64(len(e.Command))
	} else {
		q.textBytes = 0
	}
	if q.pcache != nil {
		q.pcache.AdjustQueueDepth(e.Player, -1)
	}
}

// PromoteWait moves every wait-queue entry whose WaitUntil has arrived
// into ready, and sweeps the player cache (evicting idle entries).
// Returns the count promoted.
func (q *Queue) PromoteWait() int {
	q.mu.Lock()
	now := time.Now()
	cutoff := 0
	for i, e := range q.wait {
		if e.WaitUntil.After(now) {
			break
		}
		cutoff = i + 1
	}
	if cutoff > 0 {
		q.ready = append(q.ready, q.wait[:cutoff]...)
		q.wait = q.wait[cutoff:]
	}
	q.mu.Unlock()

	if q.pcache != nil {
		q.pcache.Trim()
	}
	return cutoff
}

// PopReady removes and returns the single oldest ready entry (FIFO), or
// nil if ready is empty. The entry remains addressable by its pid (still
// in pidTable) until the caller calls Finish once it has executed, or
// Halt if it aborts.
func (q *Queue) PopReady() *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ready) == 0 {
		return nil
	}
	e := q.ready[0]
	q.ready = q.ready[1:]
	return e
}

// Tick promotes due wait-queue entries and then drains ready up to quota
// entries per player in one call, for callers that want both steps
// without interleaving other queue operations between them. The
// returned entries are removed from ready but remain addressable in
// pidTable until Finish (or Halt) is called on each.
func (q *Queue) Tick(quota int) []*Entry {
	q.PromoteWait()

	q.mu.Lock()
	defer q.mu.Unlock()
	perPlayer := make(map[gamedb.DBRef]int)
	var popped []*Entry
	var remaining []*Entry
	for _, e := range q.ready {
		if quota <= 0 || perPlayer[e.Player] < quota {
			popped = append(popped, e)
			perPlayer[e.Player]++
		} else {
			remaining = append(remaining, e)
		}
	}
	q.ready = remaining
	return popped
}

// Finish marks e's pid retired after execution (successful or not),
// releasing its queue-depth slot.
func (q *Queue) Finish(e *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finish(e)
}

// Halt cancels a single entry by pid. Returns false if no such pid is
// live.
func (q *Queue) Halt(pid PID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.pidTable[pid]
	if !ok {
		return false
	}
	q.release(e)
	q.finish(e)
	return true
}

// HaltPlayer cancels every live entry owned by player, returning the
// count removed.
func (q *Queue) HaltPlayer(player gamedb.DBRef) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	for _, e := range q.allLocked() {
		if e.Player == player {
			q.release(e)
			q.finish(e)
			removed++
		}
	}
	return removed
}

// HaltAll cancels every live entry in the queue.
func (q *Queue) HaltAll() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := len(q.ready) + len(q.wait) + len(q.sem)
	for _, e := range q.allLocked() {
		q.finish(e)
	}
	q.ready, q.wait, q.sem = nil, nil, nil
	return removed
}

func (q *Queue) allLocked() []*Entry {
	all := make([]*Entry, 0, len(q.ready)+len(q.wait)+len(q.sem))
	all = append(all, q.ready...)
	all = append(all, q.wait...)
	all = append(all, q.sem...)
	return all
}

// WaitPid blocks the in-process caller is never appropriate for a
// single-fiber scheduler, so WaitPid instead reports whether pid is
// still outstanding — callers poll it from their own queued re-check,
// matching the teacher's cooperative (non-blocking) model.
func (q *Queue) WaitPid(pid PID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pidTable[pid]
	return ok
}

// Notify wakes up to count entries waiting on (obj, attr), moving them
// to ready in semaphore-list order (FIFO per object/attr, matching
// "semaphore unordered list, FIFO per (obj,attr) release order").
// Returns the number actually woken.
func (q *Queue) Notify(obj gamedb.DBRef, attr int, count int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	woken := 0
	var remaining []*Entry
	for _, e := range q.sem {
		if e.SemObj == obj && e.SemAttr == attr && (count <= 0 || woken < count) {
			q.ready = append(q.ready, e)
			woken++
		} else {
			remaining = append(remaining, e)
		}
	}
	q.sem = remaining
	return woken
}

// Drain cancels every semaphore-queue entry waiting on (obj, attr)
// (or on obj alone if attr <= 0), returning the count removed.
func (q *Queue) Drain(obj gamedb.DBRef, attr int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	var remaining []*Entry
	for _, e := range q.sem {
		if e.SemObj == obj && (attr <= 0 || e.SemAttr == attr) {
			q.finish(e)
			removed++
		} else {
			remaining = append(remaining, e)
		}
	}
	q.sem = remaining
	return removed
}

// Stats returns the size of each internal list.
func (q *Queue) Stats() (ready, wait, sem int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready), len(q.wait), len(q.sem)
}

// Peek returns up to n live entries across all lists, for inspection
// (e.g. @ps), without removing them.
func (q *Queue) Peek(n int) []*Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*Entry
	for _, list := range [][]*Entry{q.ready, q.wait, q.sem} {
		for _, e := range list {
			if len(out) >= n {
				return out
			}
			out = append(out, e)
		}
	}
	return out
}

// CountByOwner counts every live entry whose player object is owned by
// owner (used for @quota-style accounting across a player's objects).
func (q *Queue) CountByOwner(db *gamedb.Database, owner gamedb.DBRef) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, e := range q.allLocked() {
		if obj, ok := db.Objects[e.Player]; ok && obj.Owner == owner {
			count++
		}
	}
	return count
}
