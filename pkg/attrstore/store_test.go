package attrstore

import (
	"testing"

	"github.com/tinymush/coremush/pkg/gamedb"
)

func newTestDB() *gamedb.Database {
	db := gamedb.NewDatabase()
	db.Objects[1] = &gamedb.Object{DBRef: 1, Name: "God", Owner: 1, Flags: [3]int{int(gamedb.TypePlayer), 0, 0}, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Parent: gamedb.Nothing, Link: gamedb.Nothing}
	return db
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw := Encode(1, gamedb.AFDark, "hello there")
	owner, flags, text := Decode(raw)
	if owner != 1 || flags != gamedb.AFDark || text != "hello there" {
		t.Fatalf("got owner=%d flags=%d text=%q", owner, flags, text)
	}
}

func TestDecodeUnprefixedPassesThrough(t *testing.T) {
	owner, flags, text := Decode("plain text, no prefix")
	if owner != 0 || flags != 0 || text != "plain text, no prefix" {
		t.Fatalf("unexpected decode: %d %d %q", owner, flags, text)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	db := newTestDB()
	s := New(db, NewMemBackingStore())

	if err := s.Set(1, 6, 1, 0, "A shiny room."); err != nil {
		t.Fatalf("Set: %v", err)
	}
	text, owner, _, ok := s.Get(1, 6)
	if !ok || text != "A shiny room." || owner != 1 {
		t.Fatalf("Get: text=%q owner=%d ok=%v", text, owner, ok)
	}
}

func TestSetMirrorsPresenceFlag(t *testing.T) {
	db := newTestDB()
	s := New(db, NewMemBackingStore())

	if err := s.Set(1, gamedb.A_LISTEN, 1, 0, "^hi$"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !db.Objects[1].HasFlag2(gamedb.Flag2HasListen) {
		t.Fatal("expected HAS_LISTEN flag set after A_LISTEN set")
	}
	if err := s.Clear(1, gamedb.A_LISTEN); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if db.Objects[1].HasFlag2(gamedb.Flag2HasListen) {
		t.Fatal("expected HAS_LISTEN flag cleared after A_LISTEN removed")
	}
}

func TestGetParentWalksChain(t *testing.T) {
	db := newTestDB()
	db.Objects[2] = &gamedb.Object{DBRef: 2, Name: "Parent", Owner: 1, Parent: gamedb.Nothing, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Link: gamedb.Nothing}
	db.Objects[3] = &gamedb.Object{DBRef: 3, Name: "Child", Owner: 1, Parent: 2, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Link: gamedb.Nothing}
	s := New(db, NewMemBackingStore())

	if err := s.Set(2, 6, 1, 0, "inherited desc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	text, _, _, ok := s.GetParent(3, 6, gamedb.DefaultParentNestLimit)
	if !ok || text != "inherited desc" {
		t.Fatalf("expected inherited desc, got %q ok=%v", text, ok)
	}

	if err := s.Set(3, 6, 1, 0, "own desc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	text, _, _, ok = s.GetParent(3, 6, gamedb.DefaultParentNestLimit)
	if !ok || text != "own desc" {
		t.Fatalf("expected own desc to shadow parent, got %q", text)
	}
}

func TestGetParentSkipsPrivate(t *testing.T) {
	db := newTestDB()
	db.Objects[2] = &gamedb.Object{DBRef: 2, Name: "Parent", Owner: 1, Parent: gamedb.Nothing, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Link: gamedb.Nothing}
	db.Objects[3] = &gamedb.Object{DBRef: 3, Name: "Child", Owner: 1, Parent: 2, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Link: gamedb.Nothing}
	s := New(db, NewMemBackingStore())

	if err := s.Set(2, 6, 1, gamedb.AFPrivate, "private parent desc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, _, _, ok := s.GetParent(3, 6, gamedb.DefaultParentNestLimit)
	if ok {
		t.Fatal("expected private parent attribute not to be inherited")
	}
}

func TestCopySkipsNoClone(t *testing.T) {
	db := newTestDB()
	db.Objects[2] = &gamedb.Object{DBRef: 2, Name: "Src", Owner: 1, Parent: gamedb.Nothing, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Link: gamedb.Nothing}
	db.Objects[3] = &gamedb.Object{DBRef: 3, Name: "Dst", Owner: 1, Parent: gamedb.Nothing, Location: gamedb.Nothing, Contents: gamedb.Nothing, Exits: gamedb.Nothing, Next: gamedb.Nothing, Link: gamedb.Nothing}
	s := New(db, NewMemBackingStore())

	if err := s.Set(2, 50, 1, gamedb.AFNoClone, "do not clone me"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(2, 51, 1, 0, "clone me fine"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Copy(2, 3, 50); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := s.Copy(2, 3, 51); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if _, _, _, ok := s.Get(3, 50); ok {
		t.Fatal("expected AFNoClone attribute not copied")
	}
	if text, _, _, ok := s.Get(3, 51); !ok || text != "clone me fine" {
		t.Fatalf("expected attribute 51 copied, got %q ok=%v", text, ok)
	}
}

func TestChownRewritesOwnerOnly(t *testing.T) {
	db := newTestDB()
	s := New(db, NewMemBackingStore())
	if err := s.Set(1, 6, 1, gamedb.AFDark, "a desc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Chown(1, 6, 99); err != nil {
		t.Fatalf("Chown: %v", err)
	}
	text, owner, flags, ok := s.Get(1, 6)
	if !ok || owner != 99 || flags != gamedb.AFDark || text != "a desc" {
		t.Fatalf("got owner=%d flags=%d text=%q ok=%v", owner, flags, text, ok)
	}
}

func TestIterateVisitsInDirectoryOrder(t *testing.T) {
	db := newTestDB()
	s := New(db, NewMemBackingStore())
	s.Set(1, 10, 1, 0, "ten")
	s.Set(1, 20, 1, 0, "twenty")
	s.Set(1, 5, 1, 0, "five")

	var got []int
	s.Iterate(1, func(num int, text string, owner gamedb.DBRef, flags int) bool {
		got = append(got, num)
		return true
	})
	want := []int{10, 20, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestNestedIterationDoesNotInterfere(t *testing.T) {
	db := newTestDB()
	s := New(db, NewMemBackingStore())
	s.Set(1, 10, 1, 0, "ten")
	s.Set(1, 20, 1, 0, "twenty")

	outer := s.PushIteration(1)
	num, _, _, _, ok := s.NextIteration(outer)
	if !ok || num != 10 {
		t.Fatalf("outer first: num=%d ok=%v", num, ok)
	}

	s.Set(1, 30, 1, 0, "thirty")
	inner := s.PushIteration(1)
	var innerNums []int
	for {
		n, _, _, _, ok := s.NextIteration(inner)
		if !ok {
			break
		}
		innerNums = append(innerNums, n)
	}
	s.PopIteration(inner)
	if len(innerNums) != 3 {
		t.Fatalf("expected inner snapshot to see 3 attrs, got %v", innerNums)
	}

	num, _, _, _, ok = s.NextIteration(outer)
	if !ok || num != 20 {
		t.Fatalf("outer second should still be 20 from its own snapshot, got num=%d ok=%v", num, ok)
	}
	s.PopIteration(outer)
}

func TestClearRemovesFromDirectory(t *testing.T) {
	db := newTestDB()
	s := New(db, NewMemBackingStore())
	s.Set(1, 10, 1, 0, "ten")
	s.Set(1, 20, 1, 0, "twenty")
	if err := s.Clear(1, 10); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, _, _, ok := s.Get(1, 10); ok {
		t.Fatal("expected attribute 10 gone after Clear")
	}
	if !gamedb.DirectoryHas(s.directory(1), 20) {
		t.Fatal("expected attribute 20 to remain in directory")
	}
}
