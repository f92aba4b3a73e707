package match

import (
	"testing"

	"github.com/tinymush/coremush/pkg/gamedb"
)

type fakeDeps struct {
	objects  map[gamedb.DBRef]*gamedb.Object
	contents map[gamedb.DBRef][]gamedb.DBRef
	exits    map[gamedb.DBRef][]gamedb.DBRef
	location map[gamedb.DBRef]gamedb.DBRef
	home     map[gamedb.DBRef]gamedb.DBRef
	players  map[string]gamedb.DBRef
	darkExit map[gamedb.DBRef]bool
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		objects:  map[gamedb.DBRef]*gamedb.Object{},
		contents: map[gamedb.DBRef][]gamedb.DBRef{},
		exits:    map[gamedb.DBRef][]gamedb.DBRef{},
		location: map[gamedb.DBRef]gamedb.DBRef{},
		home:     map[gamedb.DBRef]gamedb.DBRef{},
		players:  map[string]gamedb.DBRef{},
		darkExit: map[gamedb.DBRef]bool{},
	}
}

func (f *fakeDeps) Object(ref gamedb.DBRef) (*gamedb.Object, bool) {
	o, ok := f.objects[ref]
	return o, ok
}
func (f *fakeDeps) Contents(loc gamedb.DBRef) []gamedb.DBRef       { return f.contents[loc] }
func (f *fakeDeps) Exits(loc gamedb.DBRef) []gamedb.DBRef          { return f.exits[loc] }
func (f *fakeDeps) Location(actor gamedb.DBRef) gamedb.DBRef       { return f.location[actor] }
func (f *fakeDeps) Home(actor gamedb.DBRef) gamedb.DBRef           { return f.home[actor] }
func (f *fakeDeps) PlayerByName(name string) gamedb.DBRef {
	if ref, ok := f.players[name]; ok {
		return ref
	}
	return gamedb.Nothing
}
func (f *fakeDeps) CanSeeExit(actor, exit gamedb.DBRef) bool { return !f.darkExit[exit] }

func (f *fakeDeps) put(ref gamedb.DBRef, name string) {
	f.objects[ref] = &gamedb.Object{DBRef: ref, Name: name, Parent: gamedb.Nothing}
}

func TestMatchMeAndHere(t *testing.T) {
	deps := newFakeDeps()
	deps.location[1] = 5
	m := Init(deps, 1, "me")
	m.MatchMe()
	if got := m.Result(); got != 1 {
		t.Fatalf("expected actor 1, got %d", got)
	}

	m = Init(deps, 1, "here")
	m.MatchHere()
	if got := m.Result(); got != 5 {
		t.Fatalf("expected location 5, got %d", got)
	}
}

func TestMatchAbsolute(t *testing.T) {
	deps := newFakeDeps()
	m := Init(deps, 1, "#42")
	m.MatchAbsolute()
	if got := m.Result(); got != 42 {
		t.Fatalf("expected #42, got %d", got)
	}
}

func TestExactBeatsPrefix(t *testing.T) {
	deps := newFakeDeps()
	deps.put(10, "book")
	deps.put(11, "bookend")
	deps.contents[1] = []gamedb.DBRef{10, 11}

	m := Init(deps, 1, "book")
	m.MatchPossession()
	if got := m.Result(); got != 10 {
		t.Fatalf("expected exact match 10, got %d", got)
	}
}

func TestAmbiguousPrefix(t *testing.T) {
	deps := newFakeDeps()
	deps.put(10, "book")
	deps.put(11, "bookend")
	deps.contents[1] = []gamedb.DBRef{10, 11}

	m := Init(deps, 1, "boo")
	m.MatchPossession()
	if got := m.Result(); got != Ambiguous {
		t.Fatalf("expected Ambiguous, got %d", got)
	}
}

func TestStrongPassPreemptsAmbiguity(t *testing.T) {
	deps := newFakeDeps()
	deps.put(10, "apple")
	deps.put(11, "applesauce")
	deps.contents[1] = []gamedb.DBRef{10, 11}
	deps.players["apple"] = 99

	m := Init(deps, 1, "apple")
	m.MatchPossession() // exact match on 10, no ambiguity yet here
	m.MatchPlayer()     // strong pass wins regardless
	if got := m.Result(); got != 99 {
		t.Fatalf("expected strong player match 99, got %d", got)
	}
}

func TestNothingWhenNoCandidates(t *testing.T) {
	deps := newFakeDeps()
	m := Init(deps, 1, "nonexistent")
	m.MatchPossession()
	m.MatchNeighbor()
	if got := m.Result(); got != gamedb.Nothing {
		t.Fatalf("expected Nothing, got %d", got)
	}
}

func TestExitMatchSkipsDarkExits(t *testing.T) {
	deps := newFakeDeps()
	deps.put(20, "north;n")
	deps.location[1] = 5
	deps.exits[5] = []gamedb.DBRef{20}
	deps.darkExit[20] = true

	m := Init(deps, 1, "north")
	m.MatchExit()
	if got := m.Result(); got != gamedb.Nothing {
		t.Fatalf("expected dark exit to be invisible, got %d", got)
	}

	deps.darkExit[20] = false
	m = Init(deps, 1, "north")
	m.MatchExit()
	if got := m.Result(); got != 20 {
		t.Fatalf("expected exit 20 visible, got %d", got)
	}
}

func TestNoisyResultExplainsAmbiguity(t *testing.T) {
	deps := newFakeDeps()
	deps.put(10, "book")
	deps.put(11, "bookend")
	deps.contents[1] = []gamedb.DBRef{10, 11}

	m := Init(deps, 1, "boo")
	m.MatchPossession()
	var msg string
	got := m.NoisyResult(func(s string) { msg = s })
	if got != Ambiguous || msg == "" {
		t.Fatalf("expected Ambiguous with explanation, got %d msg=%q", got, msg)
	}
}

func TestLastResultIgnoresEarlierAmbiguity(t *testing.T) {
	deps := newFakeDeps()
	deps.put(10, "book")
	deps.put(11, "bookend")
	deps.contents[1] = []gamedb.DBRef{10, 11}
	deps.put(30, "box")
	deps.contents[5] = []gamedb.DBRef{30}
	deps.location[1] = 5

	m := Init(deps, 1, "b")
	m.MatchPossession() // ambiguous between 10/11
	m.MatchNeighbor()   // last pass's own candidate: 30
	if got := m.LastResult(); got != 30 {
		t.Fatalf("expected last pass result 30, got %d", got)
	}
}
