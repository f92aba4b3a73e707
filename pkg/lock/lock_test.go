package lock

import (
	"testing"

	"github.com/tinymush/coremush/pkg/gamedb"
)

// fakeDeps is a minimal Deps for table-driven lock tests: name lookups
// only match "me"/"bob"/dbref literals, attributes live in a plain map.
type fakeDeps struct {
	objects map[gamedb.DBRef]*gamedb.Object
	attrs   map[gamedb.DBRef]map[int]string
	names   map[string]gamedb.DBRef
	wizards map[gamedb.DBRef]bool
	god     gamedb.DBRef
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		objects: make(map[gamedb.DBRef]*gamedb.Object),
		attrs:   make(map[gamedb.DBRef]map[int]string),
		names:   make(map[string]gamedb.DBRef),
		wizards: make(map[gamedb.DBRef]bool),
		god:     1,
	}
}

func (f *fakeDeps) MatchObject(player gamedb.DBRef, name string) gamedb.DBRef {
	if ref, ok := f.names[name]; ok {
		return ref
	}
	return gamedb.Nothing
}
func (f *fakeDeps) LookupPlayer(name string) gamedb.DBRef { return f.MatchObject(gamedb.Nothing, name) }
func (f *fakeDeps) GetAttrText(obj gamedb.DBRef, attrNum int) string {
	if m, ok := f.attrs[obj]; ok {
		return m[attrNum]
	}
	return ""
}
func (f *fakeDeps) EvalAttrText(obj, enactor gamedb.DBRef, attrNum int) string {
	return f.GetAttrText(obj, attrNum)
}
func (f *fakeDeps) ObjName(obj gamedb.DBRef) string {
	if o, ok := f.objects[obj]; ok {
		return o.Name
	}
	return ""
}
func (f *fakeDeps) SafeContents(obj gamedb.DBRef) []gamedb.DBRef {
	if o, ok := f.objects[obj]; ok {
		var out []gamedb.DBRef
		for ref, other := range f.objects {
			if other.Location == obj {
				out = append(out, ref)
			}
		}
		_ = o
		return out
	}
	return nil
}
func (f *fakeDeps) Object(ref gamedb.DBRef) (*gamedb.Object, bool) {
	o, ok := f.objects[ref]
	return o, ok
}
func (f *fakeDeps) AttrNumByName(name string) (int, bool) { return 0, false }
func (f *fakeDeps) IsWizard(player gamedb.DBRef) bool      { return f.wizards[player] }
func (f *fakeDeps) IsGod(obj gamedb.DBRef) bool             { return obj == f.god }
func (f *fakeDeps) PassLocks(player gamedb.DBRef) bool      { return false }

func TestEvalSimpleIdentity(t *testing.T) {
	deps := newFakeDeps()
	b := Parse(deps, 1, "#5")
	if !Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("expected #5 to pass its own lock")
	}
	if Eval(deps, 6, 10, 6, b, 0) {
		t.Fatal("expected #6 to fail lock for #5")
	}
}

func TestEvalAndOr(t *testing.T) {
	deps := newFakeDeps()
	b := Parse(deps, 1, "#5&#6")
	if Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("#5&#6 should need both sides; player is only #5")
	}
	b = Parse(deps, 1, "#5|#6")
	if !Eval(deps, 6, 10, 6, b, 0) {
		t.Fatal("#5|#6 should pass for #6")
	}
}

func TestEvalNot(t *testing.T) {
	deps := newFakeDeps()
	b := Parse(deps, 1, "!#5")
	if Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("!#5 should fail for #5")
	}
	if !Eval(deps, 6, 10, 6, b, 0) {
		t.Fatal("!#5 should pass for #6")
	}
}

func TestEvalAttrWildcard(t *testing.T) {
	deps := newFakeDeps()
	deps.attrs[5] = map[int]string{100: "red shirt"}
	b := Parse(deps, 1, "100:red*")
	if !Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("expected attr wildcard to match")
	}
	deps.attrs[5][100] = "blue shirt"
	if Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("expected attr wildcard to reject non-matching text")
	}
}

func TestEvalIndirection(t *testing.T) {
	deps := newFakeDeps()
	deps.objects[20] = &gamedb.Object{DBRef: 20, Owner: 20}
	deps.attrs[20] = map[int]string{aLock: "#5"}
	b := Parse(deps, 1, "@#20")
	if !Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("expected @#20 to defer to #20's own lock (#5)")
	}
	if Eval(deps, 6, 10, 6, b, 0) {
		t.Fatal("expected #6 to fail @#20's lock")
	}
}

func TestEvalOwnerKey(t *testing.T) {
	deps := newFakeDeps()
	deps.objects[5] = &gamedb.Object{DBRef: 5, Owner: 50}
	deps.objects[6] = &gamedb.Object{DBRef: 6, Owner: 50}
	deps.objects[20] = &gamedb.Object{DBRef: 20, Owner: 50}
	b := Parse(deps, 1, "$#20")
	if !Eval(deps, 5, 10, 5, b, 0) {
		t.Fatal("expected $#20 to pass for a co-owned object")
	}
	deps.objects[6].Owner = 99
	if Eval(deps, 6, 10, 6, b, 0) {
		t.Fatal("expected $#20 to fail for a differently-owned object")
	}
}

func TestCouldDoItWizardBypass(t *testing.T) {
	deps := newFakeDeps()
	deps.wizards[7] = true
	deps.attrs[10] = map[int]string{aLock: "#5"}
	if !CouldDoIt(deps, 7, 10, aLock) {
		t.Fatal("expected wizard to bypass lock")
	}
	if CouldDoIt(deps, 6, 10, aLock) {
		t.Fatal("expected non-wizard non-matching player to fail lock")
	}
}

func TestCouldDoItStrictIgnoresWizard(t *testing.T) {
	deps := newFakeDeps()
	deps.wizards[7] = true
	deps.attrs[10] = map[int]string{aLock: "#5"}
	if CouldDoItStrict(deps, 7, 10, aLock) {
		t.Fatal("expected strict check to ignore wizard bypass")
	}
}

func TestUnparseRoundTripsDBRef(t *testing.T) {
	deps := newFakeDeps()
	b := Parse(deps, 1, "#5&!#6")
	got := Unparse(deps, b)
	want := "#5&!#6"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWildMatch(t *testing.T) {
	cases := []struct {
		pattern, str string
		want         bool
	}{
		{"red*", "red shirt", true},
		{"red*", "blue shirt", false},
		{"*shirt", "red shirt", true},
		{"r?d", "red", true},
		{"r?d", "rod", true},
		{"r?d", "read", false},
		{"exact", "exact", true},
		{"exact", "exacty", false},
	}
	for _, c := range cases {
		if got := wildMatchCI(c.pattern, c.str); got != c.want {
			t.Errorf("wildMatchCI(%q, %q) = %v, want %v", c.pattern, c.str, got, c.want)
		}
	}
}
