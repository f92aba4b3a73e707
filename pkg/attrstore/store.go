package attrstore

import (
	"strconv"
	"strings"

	"github.com/tinymush/coremush/pkg/gamedb"
)

// Store implements the C2 attribute store contract (spec §4.2) over an
// in-memory gamedb.Database and a BackingStore. Every call
// that mutates an attribute commits to the backing store before
// returning; the one-slot directory cache absorbs the common case of
// several Set/Clear/Get calls in a row against the same object (e.g. a
// softcode loop setting several attributes on itself).
type Store struct {
	db      *gamedb.Database
	backing BackingStore

	dirCacheObj   gamedb.DBRef
	dirCacheValid bool
	dirCacheNums  []int

	iterStack []iterFrame
}

type iterFrame struct {
	obj  gamedb.DBRef
	nums []int
	pos  int
}

// New returns a Store over db, committing through backing.
func New(db *gamedb.Database, backing BackingStore) *Store {
	return &Store{db: db, backing: backing}
}

// directory returns obj's attribute-number directory, consulting the
// one-slot cache before falling back to the backing store.
func (s *Store) directory(obj gamedb.DBRef) []int {
	if s.dirCacheValid && s.dirCacheObj == obj {
		return s.dirCacheNums
	}
	raw, ok, _ := s.backing.Get(Key{Obj: obj, Num: A_LIST})
	var nums []int
	if ok {
		nums = gamedb.DecodeDirectory(raw)
	}
	s.dirCacheObj = obj
	s.dirCacheNums = nums
	s.dirCacheValid = true
	return nums
}

// A_LIST re-exports gamedb.A_LIST so backing-store implementations don't
// need to import gamedb just for the sentinel slot number.
const A_LIST = gamedb.A_LIST

func (s *Store) saveDirectory(obj gamedb.DBRef, nums []int) error {
	s.dirCacheObj = obj
	s.dirCacheNums = nums
	s.dirCacheValid = true
	return s.backing.Put(Key{Obj: obj, Num: A_LIST}, gamedb.EncodeDirectory(nums))
}

// Get fetches obj's own (non-inherited) value for num.
func (s *Store) Get(obj gamedb.DBRef, num int) (text string, owner gamedb.DBRef, flags int, ok bool) {
	raw, found, _ := s.backing.Get(Key{Obj: obj, Num: num})
	if !found {
		return "", gamedb.Nothing, 0, false
	}
	o, f, t := Decode(string(raw))
	return t, gamedb.DBRef(o), f, true
}

// GetParent fetches num's effective value on obj: obj's own value if
// set, else the first value found walking the Parent chain (skipping
// any ancestor value flagged AFPrivate, which blocks that ancestor's
// copy from being inherited but not the search past it), else a value
// reachable through obj's A_PROPDIR list of auxiliary lookup objects.
// nestLim bounds the parent-chain walk the same way gamedb.SetParent's
// cycle check is bounded.
func (s *Store) GetParent(obj gamedb.DBRef, num int, nestLim int) (text string, owner gamedb.DBRef, flags int, ok bool) {
	if text, owner, flags, ok = s.Get(obj, num); ok {
		return text, owner, flags, true
	}
	cur := obj
	seen := map[gamedb.DBRef]bool{obj: true}
	for depth := 0; depth < nestLim; depth++ {
		o, exists := s.db.Objects[cur]
		if !exists || o.Parent == gamedb.Nothing || seen[o.Parent] {
			break
		}
		cur = o.Parent
		seen[cur] = true
		t, ow, fl, found := s.Get(cur, num)
		if found && fl&gamedb.AFPrivate == 0 {
			return t, ow, fl, true
		}
	}
	if propText, propOwner, propFlags, propOK := s.getViaPropdir(obj, num); propOK {
		return propText, propOwner, propFlags, true
	}
	return "", gamedb.Nothing, 0, false
}

// getViaPropdir checks the objects named in obj's own A_PROPDIR attribute
// (a space-separated list of dbrefs) for num, non-recursively.
func (s *Store) getViaPropdir(obj gamedb.DBRef, num int) (string, gamedb.DBRef, int, bool) {
	propText, _, _, ok := s.Get(obj, gamedb.A_PROPDIR)
	if !ok {
		return "", gamedb.Nothing, 0, false
	}
	return s.lookupPropdirTargets(propText, num)
}

func (s *Store) lookupPropdirTargets(list string, num int) (string, gamedb.DBRef, int, bool) {
	for _, tok := range strings.Fields(list) {
		tok = strings.TrimPrefix(tok, "#")
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if t, ow, fl, ok := s.Get(gamedb.DBRef(n), num); ok {
			return t, ow, fl, true
		}
	}
	return "", gamedb.Nothing, 0, false
}

// sideEffectFlag returns the Object.Flags word index and bit that track
// the presence of a special attribute, or ok=false if num has none.
func sideEffectFlag(num int) (word int, bit int, ok bool) {
	switch num {
	case gamedb.A_STARTUP:
		return 0, gamedb.FlagHasStartup, true
	case gamedb.A_FORWARDLIST:
		return 1, gamedb.Flag2HasFwd, true
	case gamedb.A_LISTEN:
		return 1, gamedb.Flag2HasListen, true
	case gamedb.A_DAILYATTRIB:
		return 1, gamedb.Flag2HasDaily, true
	}
	return 0, 0, false
}

// Set stores num's value on obj, updating the directory and mirroring
// presence into the object's flag word for attributes that have one
// (spec §4.2.1 — e.g. HAS_LISTEN tracks whether A_LISTEN is set so the
// matcher/eval layer can skip the attribute read on the common case of
// "no @listen set").
func (s *Store) Set(obj gamedb.DBRef, num int, owner gamedb.DBRef, flags int, text string) error {
	if err := s.backing.Put(Key{Obj: obj, Num: num}, []byte(Encode(int(owner), flags, text))); err != nil {
		return err
	}
	nums := s.directory(obj)
	if !gamedb.DirectoryHas(nums, num) {
		if err := s.saveDirectory(obj, gamedb.DirectoryAdd(nums, num)); err != nil {
			return err
		}
	}
	if word, bit, ok := sideEffectFlag(num); ok {
		if o, exists := s.db.Objects[obj]; exists {
			o.Flags[word] |= bit
		}
	}
	return nil
}

// Clear removes num from obj entirely, clearing its directory entry and
// any side-effect presence flag.
func (s *Store) Clear(obj gamedb.DBRef, num int) error {
	if err := s.backing.Del(Key{Obj: obj, Num: num}); err != nil {
		return err
	}
	nums := s.directory(obj)
	if gamedb.DirectoryHas(nums, num) {
		if err := s.saveDirectory(obj, gamedb.DirectoryRemove(nums, num)); err != nil {
			return err
		}
	}
	if word, bit, ok := sideEffectFlag(num); ok {
		if o, exists := s.db.Objects[obj]; exists {
			o.Flags[word] &^= bit
		}
	}
	return nil
}

// Copy duplicates num's raw owner/flags/text from src onto dst, skipping
// attributes flagged AFNoClone (spec: clone must not propagate
// do-not-clone attributes such as a locked password override).
func (s *Store) Copy(src, dst gamedb.DBRef, num int) error {
	text, owner, flags, ok := s.Get(src, num)
	if !ok {
		return nil
	}
	if flags&gamedb.AFNoClone != 0 {
		return nil
	}
	return s.Set(dst, num, owner, flags, text)
}

// Chown rewrites num's owner on obj without touching its text or flags.
func (s *Store) Chown(obj gamedb.DBRef, num int, newOwner gamedb.DBRef) error {
	text, _, flags, ok := s.Get(obj, num)
	if !ok {
		return nil
	}
	return s.Set(obj, num, newOwner, flags, text)
}

// PushIteration snapshots obj's current directory order and returns a
// handle for NextIteration/PopIteration. Nested iterations over the same
// object (a softcode @each inside another) each get their own snapshot,
// so one loop clearing an attribute doesn't skip or repeat entries in an
// outer loop walking the same object.
func (s *Store) PushIteration(obj gamedb.DBRef) int {
	nums := append([]int(nil), s.directory(obj)...)
	s.iterStack = append(s.iterStack, iterFrame{obj: obj, nums: nums})
	return len(s.iterStack) - 1
}

// NextIteration advances handle's snapshot, returning the next attribute
// number and owner/flags/text, or ok=false when the snapshot is exhausted.
func (s *Store) NextIteration(handle int) (num int, text string, owner gamedb.DBRef, flags int, ok bool) {
	if handle < 0 || handle >= len(s.iterStack) {
		return 0, "", gamedb.Nothing, 0, false
	}
	frame := &s.iterStack[handle]
	for frame.pos < len(frame.nums) {
		n := frame.nums[frame.pos]
		frame.pos++
		if n == A_LIST {
			continue
		}
		if t, ow, fl, found := s.Get(frame.obj, n); found {
			return n, t, ow, fl, true
		}
	}
	return 0, "", gamedb.Nothing, 0, false
}

// PopIteration discards handle's snapshot. Handles must be popped in
// LIFO order; popping anything but the top handle truncates every frame
// above it as well.
func (s *Store) PopIteration(handle int) {
	if handle < 0 || handle >= len(s.iterStack) {
		return
	}
	s.iterStack = s.iterStack[:handle]
}

// Iterate walks obj's attributes in directory order, calling fn for each
// until fn returns false or the directory is exhausted.
func (s *Store) Iterate(obj gamedb.DBRef, fn func(num int, text string, owner gamedb.DBRef, flags int) bool) {
	h := s.PushIteration(obj)
	defer s.PopIteration(h)
	for {
		num, text, owner, flags, ok := s.NextIteration(h)
		if !ok {
			return
		}
		if !fn(num, text, owner, flags) {
			return
		}
	}
}
