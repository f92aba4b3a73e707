package topology

import (
	"testing"

	"github.com/tinymush/coremush/pkg/gamedb"
)

// fakeDeps is a minimal Deps: every player can afford anything unless
// money is explicitly tracked, control defaults to true, contents
// membership is a plain set recorded for assertions.
type fakeDeps struct {
	wizard   map[gamedb.DBRef]bool
	controls map[gamedb.DBRef]bool
	money    map[gamedb.DBRef]int
	contents map[gamedb.DBRef]map[gamedb.DBRef]bool
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		wizard:   map[gamedb.DBRef]bool{},
		controls: map[gamedb.DBRef]bool{},
		money:    map[gamedb.DBRef]int{},
		contents: map[gamedb.DBRef]map[gamedb.DBRef]bool{},
	}
}

func (f *fakeDeps) Controls(actor, target gamedb.DBRef) bool {
	if v, ok := f.controls[target]; ok {
		return v
	}
	return true
}
func (f *fakeDeps) IsWizard(actor gamedb.DBRef) bool { return f.wizard[actor] }
func (f *fakeDeps) ChargeCost(actor gamedb.DBRef, cost int) bool {
	if cost <= 0 || f.wizard[actor] {
		return true
	}
	if f.money[actor] < cost {
		return false
	}
	f.money[actor] -= cost
	return true
}
func (f *fakeDeps) Money(player gamedb.DBRef) int { return f.money[player] }
func (f *fakeDeps) AddMoney(player gamedb.DBRef, delta int) bool {
	if f.money[player]+delta < 0 {
		return false
	}
	f.money[player] += delta
	return true
}
func (f *fakeDeps) AddToContents(loc, obj gamedb.DBRef) {
	if f.contents[loc] == nil {
		f.contents[loc] = map[gamedb.DBRef]bool{}
	}
	f.contents[loc][obj] = true
}
func (f *fakeDeps) RemoveFromContents(loc, obj gamedb.DBRef) {
	delete(f.contents[loc], obj)
}

func newTestDB() *gamedb.Database {
	db := gamedb.NewDatabase()
	db.Objects[1] = &gamedb.Object{DBRef: 1, Name: "God", Owner: 1, Flags: [3]int{int(gamedb.TypePlayer), 0, 0}, Contents: gamedb.Nothing, Next: gamedb.Nothing}
	return db
}

func TestDigChargesCostAndAllocatesRoom(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	deps.money[1] = 50
	tp := New(db, deps)

	room, err := tp.Dig(1, "Hall", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.ObjType() != gamedb.TypeRoom {
		t.Fatalf("expected room, got %v", room.ObjType())
	}
	if deps.money[1] != 40 {
		t.Fatalf("expected 40 left, got %d", deps.money[1])
	}
}

func TestDigFailsOnInsufficientFunds(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	deps.money[1] = 5
	tp := New(db, deps)

	if _, err := tp.Dig(1, "Hall", 10); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(db.Objects) != 1 {
		t.Fatalf("expected no room allocated on failed charge, got %d objects", len(db.Objects))
	}
}

func TestOpenLinksExitIntoSourceExitChain(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	deps.money[1] = 10
	tp := New(db, deps)

	room := db.Allocate(gamedb.TypeRoom, 1, "Room")
	exit, err := tp.Open(1, room.DBRef, gamedb.Nothing, "north;n", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.Exits != exit.DBRef {
		t.Fatalf("expected room.Exits to point at new exit, got #%d", room.Exits)
	}
}

func TestParentRejectsCycle(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	a := db.Allocate(gamedb.TypeThing, 1, "A")
	b := db.Allocate(gamedb.TypeThing, 1, "B")
	c := db.Allocate(gamedb.TypeThing, 1, "C")
	if err := tp.Parent(1, a.DBRef, b.DBRef); err != nil {
		t.Fatalf("A=B failed: %v", err)
	}
	if err := tp.Parent(1, b.DBRef, c.DBRef); err != nil {
		t.Fatalf("B=C failed: %v", err)
	}
	if err := tp.Parent(1, c.DBRef, a.DBRef); err != gamedb.ErrCycle {
		t.Fatalf("expected ErrCycle for C=A, got %v", err)
	}
}

func TestParentRejectsWithoutControl(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	target := db.Allocate(gamedb.TypeThing, 1, "Thing")
	parent := db.Allocate(gamedb.TypeThing, 1, "Parent")
	deps.controls[target.DBRef] = false

	if err := tp.Parent(2, target.DBRef, parent.DBRef); err != ErrPermission {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
}

func TestDestroyDefaultsToMarkOnly(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	room := db.Allocate(gamedb.TypeRoom, 1, "Room")
	thing := db.Allocate(gamedb.TypeThing, 1, "Thing")
	thing.Location = room.DBRef
	deps.AddToContents(room.DBRef, thing.DBRef)

	if err := tp.Destroy(1, thing.DBRef, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !thing.IsGoing() {
		t.Fatal("expected thing flagged Going")
	}
	if thing.ObjType() == gamedb.TypeGarbage {
		t.Fatal("expected thing not yet reaped")
	}
	if !deps.contents[room.DBRef][thing.DBRef] {
		t.Fatal("expected thing to remain linked until reaped")
	}
}

func TestDestroyInstantReapsImmediately(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	thing := db.Allocate(gamedb.TypeThing, 1, "Thing")
	if err := tp.Destroy(1, thing.DBRef, false, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thing.ObjType() != gamedb.TypeGarbage {
		t.Fatalf("expected instant reap to flip type to garbage, got %v", thing.ObjType())
	}
}

func TestDestroyRequiresOverrideForSafe(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	thing := db.Allocate(gamedb.TypeThing, 1, "Thing")
	thing.Flags[0] |= gamedb.FlagSafe

	if err := tp.Destroy(1, thing.DBRef, false, false); err != ErrSafe {
		t.Fatalf("expected ErrSafe, got %v", err)
	}
	if err := tp.Destroy(1, thing.DBRef, true, false); err != nil {
		t.Fatalf("expected override to succeed, got %v", err)
	}
}

func TestReapSweepsAllGoingObjects(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	a := db.Allocate(gamedb.TypeThing, 1, "A")
	b := db.Allocate(gamedb.TypeThing, 1, "B")
	db.MarkGoing(a.DBRef)
	db.MarkGoing(b.DBRef)

	reaped := tp.Reap()
	if len(reaped) != 2 {
		t.Fatalf("expected 2 reaped, got %d", len(reaped))
	}
	if a.ObjType() != gamedb.TypeGarbage || b.ObjType() != gamedb.TypeGarbage {
		t.Fatal("expected both objects reaped to garbage")
	}
}

func TestGiveMoneyTransfersBetweenPlayers(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	deps.money[1] = 100
	deps.money[2] = 0
	tp := New(db, deps)

	if err := tp.GiveMoney(1, 2, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.money[1] != 70 || deps.money[2] != 30 {
		t.Fatalf("expected 70/30, got %d/%d", deps.money[1], deps.money[2])
	}
}

func TestGiveMoneyFailsWithoutEnoughFunds(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	deps.money[1] = 10
	tp := New(db, deps)

	if err := tp.GiveMoney(1, 2, 30); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if deps.money[1] != 10 {
		t.Fatalf("expected no partial debit, got %d", deps.money[1])
	}
}

func TestGiveObjectRequiresCarrying(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	tp := New(db, deps)

	thing := db.Allocate(gamedb.TypeThing, 1, "Thing")
	thing.Location = gamedb.DBRef(99) // not carried by player 1

	if err := tp.GiveObject(1, 2, thing.DBRef); err != ErrNotCarrying {
		t.Fatalf("expected ErrNotCarrying, got %v", err)
	}
}

func TestKillOddsGuaranteedAtOrAboveGuarantee(t *testing.T) {
	if !KillOdds(1000, 10, 100, 1000, 99) {
		t.Fatal("expected guaranteed success at cost >= guarantee")
	}
}

func TestKillOddsScalesBetweenMinAndMax(t *testing.T) {
	if KillOdds(10, 10, 100, 1000, 0) {
		t.Fatal("expected cost at killmin to have zero odds regardless of roll")
	}
	if !KillOdds(55, 10, 100, 1000, 40) {
		t.Fatal("expected cost halfway to killmax to beat a roll below its percentage")
	}
	if KillOdds(55, 10, 100, 1000, 60) {
		t.Fatal("expected cost halfway to killmax to lose to a roll above its percentage")
	}
}

func TestKillRelocatesVictimHomeOnSuccess(t *testing.T) {
	db := newTestDB()
	deps := newFakeDeps()
	deps.money[1] = 1000
	tp := New(db, deps)

	room := db.Allocate(gamedb.TypeRoom, 1, "Room")
	home := db.Allocate(gamedb.TypeRoom, 1, "Home")
	victim := db.Allocate(gamedb.TypePlayer, 1, "Victim")
	victim.Location = room.DBRef
	victim.Link = home.DBRef
	deps.AddToContents(room.DBRef, victim.DBRef)

	success, err := tp.Kill(1, victim.DBRef, 1000, 10, 100, 1000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !success {
		t.Fatal("expected guaranteed kill to succeed")
	}
	if victim.Location != home.DBRef {
		t.Fatalf("expected victim relocated home, got #%d", victim.Location)
	}
	if deps.contents[room.DBRef][victim.DBRef] {
		t.Fatal("expected victim removed from room contents")
	}
	if !deps.contents[home.DBRef][victim.DBRef] {
		t.Fatal("expected victim added to home contents")
	}
}
