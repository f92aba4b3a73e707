package gamedb

import "testing"

func newRoomDB() *Database {
	db := NewDatabase()
	db.Objects[1] = &Object{DBRef: 1, Name: "God", Owner: 1, Flags: [3]int{int(TypePlayer), 0, 0}, Contents: Nothing, Next: Nothing}
	return db
}

func TestAllocateReusesGarbage(t *testing.T) {
	db := newRoomDB()
	db.Objects[2] = &Object{DBRef: 2, Flags: [3]int{int(TypeGarbage), 0, 0}}
	obj := db.Allocate(TypeThing, 1, "Widget")
	if obj.DBRef != 2 {
		t.Fatalf("expected garbage slot #2 reused, got #%d", obj.DBRef)
	}
	if obj.ObjType() != TypeThing {
		t.Fatalf("expected type thing, got %v", obj.ObjType())
	}
}

func TestAllocateGrowsWhenNoGarbage(t *testing.T) {
	db := newRoomDB()
	obj := db.Allocate(TypeRoom, 1, "Hall")
	if obj.DBRef != 0 {
		t.Fatalf("expected first free slot #0, got #%d", obj.DBRef)
	}
}

func TestSetParentRejectsCycle(t *testing.T) {
	db := newRoomDB()
	a := db.Allocate(TypeThing, 1, "A")
	b := db.Allocate(TypeThing, 1, "B")
	c := db.Allocate(TypeThing, 1, "C")

	if err := db.SetParent(a.DBRef, b.DBRef, DefaultParentNestLimit); err != nil {
		t.Fatalf("A=B failed: %v", err)
	}
	if err := db.SetParent(b.DBRef, c.DBRef, DefaultParentNestLimit); err != nil {
		t.Fatalf("B=C failed: %v", err)
	}
	if err := db.SetParent(c.DBRef, a.DBRef, DefaultParentNestLimit); err != ErrCycle {
		t.Fatalf("expected ErrCycle for C=A, got %v", err)
	}
	if c.Parent != Nothing {
		t.Fatalf("failed SetParent must not mutate parent, got %v", c.Parent)
	}
}

func TestReapGarbageEmptiesContentsToHome(t *testing.T) {
	db := newRoomDB()
	room := db.Allocate(TypeRoom, 1, "Room")
	home := db.Allocate(TypeRoom, 1, "Home")
	thing := db.Allocate(TypeThing, 1, "Thing")
	thing.Location = room.DBRef
	thing.Link = home.DBRef
	db.addToList(room.DBRef, thing.DBRef, false)

	db.MarkGoing(room.DBRef)
	if !room.IsGoing() {
		t.Fatal("expected room flagged going")
	}
	db.ReapGarbage(room.DBRef, Nothing)

	if thing.Location != home.DBRef {
		t.Fatalf("expected thing relocated home #%d, got #%d", home.DBRef, thing.Location)
	}
	if room.ObjType() != TypeGarbage {
		t.Fatalf("expected room garbage after reap, got %v", room.ObjType())
	}
}

func TestReapGarbageCreditsDestroyer(t *testing.T) {
	db := newRoomDB()
	victim := db.Allocate(TypePlayer, 1, "Victim")
	killer := db.Allocate(TypePlayer, 1, "Killer")
	db.MarkGoing(victim.DBRef)
	db.ReapGarbage(victim.DBRef, killer.DBRef)

	found := false
	for _, a := range victim.Attrs {
		if a.Number == A_DESTROYER && a.Value == formatDBRef(killer.DBRef) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected A_DESTROYER credited to killer #%d, got attrs %v", killer.DBRef, victim.Attrs)
	}
}

func TestSafeContentsToleratesBrokenList(t *testing.T) {
	db := newRoomDB()
	room := db.Allocate(TypeRoom, 1, "Room")
	a := db.Allocate(TypeThing, 1, "A")
	b := db.Allocate(TypeThing, 1, "B")
	room.Contents = a.DBRef
	a.Next = b.DBRef
	b.Next = a.DBRef // cycle
	list := db.SafeContents(room.DBRef)
	if len(list) != 2 {
		t.Fatalf("expected cycle to be tolerated with 2 entries, got %d", len(list))
	}
}

func TestAttrDirectoryRoundTrip(t *testing.T) {
	nums := []int{0, 1, 127, 128, 300, 1 << 20}
	enc := EncodeDirectory(nums)
	got := DecodeDirectory(enc)
	if len(got) != len(nums) {
		t.Fatalf("length mismatch: got %v want %v", got, nums)
	}
	for i := range nums {
		if got[i] != nums[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, got[i], nums[i])
		}
	}
}

func TestDirectoryAddRemove(t *testing.T) {
	var nums []int
	nums = DirectoryAdd(nums, 5)
	nums = DirectoryAdd(nums, 7)
	nums = DirectoryAdd(nums, 5) // duplicate, no-op
	if len(nums) != 2 {
		t.Fatalf("expected 2 entries, got %v", nums)
	}
	nums = DirectoryRemove(nums, 5)
	if len(nums) != 1 || nums[0] != 7 {
		t.Fatalf("expected [7], got %v", nums)
	}
}
