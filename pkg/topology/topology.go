// Package topology generalizes the @dig/@open/@create/@clone/@parent/
// @destroy/give/kill orchestration that used to live inline in
// pkg/server/commands.go into operator functions over the object store,
// so pkg/server's handlers become thin command-parsing and notification
// wrappers around them.
package topology

import (
	"errors"

	"github.com/tinymush/coremush/pkg/gamedb"
)

var (
	ErrPermission         = errors.New("topology: permission denied")
	ErrNoSuchObject       = errors.New("topology: no such object")
	ErrInsufficientFunds  = errors.New("topology: insufficient funds")
	ErrSafe               = errors.New("topology: object is SAFE")
	ErrNotCarrying        = errors.New("topology: not carrying that")
)

// Deps is the subset of game-level bookkeeping (permissions, the player
// cache, list membership) that the topology operators need but that
// lives in pkg/server; an adapter there implements this over *Game so
// this package carries no dependency on pkg/server.
type Deps interface {
	Controls(actor, target gamedb.DBRef) bool
	IsWizard(actor gamedb.DBRef) bool
	ChargeCost(actor gamedb.DBRef, cost int) bool
	Money(player gamedb.DBRef) int
	AddMoney(player gamedb.DBRef, delta int) bool
	AddToContents(loc, obj gamedb.DBRef)
	RemoveFromContents(loc, obj gamedb.DBRef)
}

// Topology bundles the object store with its game-level dependencies.
type Topology struct {
	DB   *gamedb.Database
	Deps Deps
}

func New(db *gamedb.Database, deps Deps) *Topology {
	return &Topology{DB: db, Deps: deps}
}

// Dig allocates a new room owned by actor, charging cost first. On
// insufficient funds no room is allocated.
func (t *Topology) Dig(actor gamedb.DBRef, name string, cost int) (*gamedb.Object, error) {
	if !t.Deps.ChargeCost(actor, cost) {
		return nil, ErrInsufficientFunds
	}
	return t.DB.Allocate(gamedb.TypeRoom, actor, name), nil
}

// Open allocates an exit from source to dest (dest may be gamedb.Nothing
// for an unlinked exit), charging cost first.
func (t *Topology) Open(actor, source, dest gamedb.DBRef, name string, cost int) (*gamedb.Object, error) {
	if !t.Deps.ChargeCost(actor, cost) {
		return nil, ErrInsufficientFunds
	}
	obj := t.DB.Allocate(gamedb.TypeExit, actor, name)
	// TinyMUSH exit semantics: Location = destination, Exits = source room.
	obj.Location = dest
	obj.Exits = source
	if srcObj, ok := t.DB.Objects[source]; ok {
		obj.Next = srcObj.Exits
		srcObj.Exits = obj.DBRef
	}
	return obj, nil
}

// Create allocates a thing owned by actor, placed in actor's own
// inventory, charging cost+endow and endowing the new object with
// endow pennies.
func (t *Topology) Create(actor gamedb.DBRef, name string, cost, endow int) (*gamedb.Object, error) {
	if !t.Deps.ChargeCost(actor, cost+endow) {
		return nil, ErrInsufficientFunds
	}
	obj := t.DB.Allocate(gamedb.TypeThing, actor, name)
	obj.Pennies = endow
	obj.Location = actor
	t.Deps.AddToContents(actor, obj.DBRef)
	return obj, nil
}

// Clone allocates a copy of src owned by actor, placed in actor's
// inventory. inheritParent mirrors the teacher's /parent switch: when
// true the clone's parent becomes src itself and attributes are not
// copied (they're meant to be inherited through the parent chain
// instead); when false the clone copies src's parent and attributes
// directly. This fallthrough is preserved exactly rather than
// simplified, matching the teacher's own @clone switch structure.
func (t *Topology) Clone(actor, src gamedb.DBRef, newName string, inheritParent bool, cost int) (*gamedb.Object, error) {
	srcObj, ok := t.DB.Objects[src]
	if !ok {
		return nil, ErrNoSuchObject
	}
	if !t.Deps.ChargeCost(actor, cost) {
		return nil, ErrInsufficientFunds
	}
	obj := t.DB.Allocate(srcObj.ObjType(), actor, newName)
	if inheritParent {
		obj.Parent = src
	} else {
		obj.Parent = srcObj.Parent
		for _, attr := range srcObj.Attrs {
			obj.Attrs = append(obj.Attrs, gamedb.Attribute{Number: attr.Number, Value: attr.Value})
		}
	}
	obj.Link = srcObj.Link
	if srcObj.ObjType() == gamedb.TypeExit {
		obj.Location = srcObj.Location
	} else {
		obj.Location = actor
		t.Deps.AddToContents(actor, obj.DBRef)
	}
	return obj, nil
}

// Parent sets target's parent, rejecting cycles and unauthorized actors.
func (t *Topology) Parent(actor, target, parent gamedb.DBRef) error {
	if _, ok := t.DB.Objects[target]; !ok {
		return ErrNoSuchObject
	}
	if !t.Deps.Controls(actor, target) {
		return ErrPermission
	}
	return t.DB.SetParent(target, parent, gamedb.DefaultParentNestLimit)
}

// Destroy runs phase one of two-phase destruction: it marks target
// Going (gamedb.MarkGoing) but leaves it linked into its containers,
// unless instant is true, in which case ReapGarbage also runs
// immediately, unlinking target and emptying its contents. Safe objects
// require override to be destroyed at all.
func (t *Topology) Destroy(actor, target gamedb.DBRef, override, instant bool) error {
	obj, ok := t.DB.Objects[target]
	if !ok {
		return ErrNoSuchObject
	}
	if !t.Deps.Controls(actor, target) {
		return ErrPermission
	}
	if obj.HasFlag(gamedb.FlagSafe) && !override {
		return ErrSafe
	}
	t.DB.MarkGoing(target)
	if instant {
		t.DB.ReapGarbage(target, actor)
	}
	return nil
}

// Reap completes destruction of every object flagged Going, the
// background counterpart to Destroy's default (non-instant) phase one.
// Returns the dbrefs reaped.
func (t *Topology) Reap() []gamedb.DBRef {
	var reaped []gamedb.DBRef
	for ref, obj := range t.DB.Objects {
		if obj.ObjType() != gamedb.TypeGarbage && obj.HasFlag(gamedb.FlagGoing) {
			t.DB.ReapGarbage(ref, obj.Owner)
			reaped = append(reaped, ref)
		}
	}
	return reaped
}

// GiveMoney transfers amount pennies from giver to receiver through the
// player cache, failing without effect if giver can't cover it.
func (t *Topology) GiveMoney(giver, receiver gamedb.DBRef, amount int) error {
	if amount <= 0 {
		return ErrInsufficientFunds
	}
	if t.Deps.Money(giver) < amount {
		return ErrInsufficientFunds
	}
	if !t.Deps.AddMoney(giver, -amount) {
		return ErrInsufficientFunds
	}
	t.Deps.AddMoney(receiver, amount)
	return nil
}

// GiveObject moves thing from giver's inventory into receiver's.
func (t *Topology) GiveObject(giver, receiver, thing gamedb.DBRef) error {
	obj, ok := t.DB.Objects[thing]
	if !ok || obj.Location != giver {
		return ErrNotCarrying
	}
	t.Deps.RemoveFromContents(giver, thing)
	obj.Location = receiver
	t.Deps.AddToContents(receiver, thing)
	return nil
}

// KillOdds computes whether a kill attempt funded with cost pennies
// (clamped to [killMin, killMax]) succeeds. A cost at or above
// guarantee always succeeds; below that, the odds scale linearly from
// 0 at killMin to just under guaranteed at killMax, matching classic
// TinyMUSH kill-cost economics. roll is a caller-supplied value in
// [0,100) so the package stays deterministic and testable.
func KillOdds(cost, killMin, killMax, guarantee, roll int) bool {
	if cost >= guarantee {
		return true
	}
	if cost < killMin {
		cost = killMin
	}
	if cost > killMax {
		cost = killMax
	}
	if killMax <= killMin {
		return roll < 50
	}
	pct := (cost - killMin) * 99 / (killMax - killMin)
	return roll < pct
}

// Kill charges actor cost (floored at killMin, capped at guarantee — a
// cost above guarantee buys nothing beyond the guaranteed success it
// already has) and, if the attempt succeeds per KillOdds, sends target
// home, removing it from its current location and placing it at its
// Link (home). Returns whether the kill succeeded.
func (t *Topology) Kill(actor, target gamedb.DBRef, cost, killMin, killMax, guarantee, roll int) (bool, error) {
	obj, ok := t.DB.Objects[target]
	if !ok {
		return false, ErrNoSuchObject
	}
	if cost < killMin {
		cost = killMin
	}
	if guarantee > 0 && cost > guarantee {
		cost = guarantee
	}
	if !t.Deps.ChargeCost(actor, cost) {
		return false, ErrInsufficientFunds
	}
	if !KillOdds(cost, killMin, killMax, guarantee, roll) {
		return false, nil
	}
	home := obj.Link
	if home == gamedb.Nothing {
		return true, nil
	}
	loc := obj.Location
	t.Deps.RemoveFromContents(loc, target)
	obj.Location = home
	t.Deps.AddToContents(home, target)
	return true, nil
}
