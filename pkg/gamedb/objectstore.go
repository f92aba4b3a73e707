package gamedb

import "errors"

// Errors returned by object-store operations.
var (
	ErrCycle          = errors.New("gamedb: operation would create a cycle")
	ErrInsufficientFunds = errors.New("gamedb: insufficient funds")
	ErrBadTarget      = errors.New("gamedb: invalid target for operation")
	ErrBadType        = errors.New("gamedb: wrong object type for operation")
)

// DefaultParentNestLimit bounds how many parent hops SetParent and the
// attribute store's parent-chain walk will traverse before giving up.
const DefaultParentNestLimit = 10

// Allocate creates a new object of the given type owned by owner, reusing
// the lowest-numbered garbage slot if one exists, growing the dense dbref
// space otherwise. It does not touch the player's balance; callers that
// need to charge a creation cost should debit it (e.g. via a player cache)
// before calling Allocate, and must not call Allocate at all if the debit
// fails — no slot is consumed on a failed creation.
func (db *Database) Allocate(typ ObjectType, owner DBRef, name string) *Object {
	reuse := Nothing
	for ref, obj := range db.Objects {
		if obj.ObjType() == TypeGarbage && ref >= 0 && (reuse == Nothing || ref < reuse) {
			reuse = ref
		}
	}
	if reuse != Nothing {
		ref := reuse
		if obj := db.Objects[ref]; obj != nil {
			*obj = Object{
				DBRef:    ref,
				Name:     name,
				Location: Nothing,
				Zone:     Nothing,
				Contents: Nothing,
				Exits:    Nothing,
				Link:     Nothing,
				Next:     Nothing,
				Owner:    owner,
				Parent:   Nothing,
				Flags:    [3]int{int(typ), 0, 0},
			}
			return obj
		}
	}
	ref := db.nextFreeRef()
	obj := &Object{
		DBRef:    ref,
		Name:     name,
		Location: Nothing,
		Zone:     Nothing,
		Contents: Nothing,
		Exits:    Nothing,
		Link:     Nothing,
		Next:     Nothing,
		Owner:    owner,
		Parent:   Nothing,
		Flags:    [3]int{int(typ), 0, 0},
	}
	db.Objects[ref] = obj
	return obj
}

// nextFreeRef returns the lowest dbref not currently present in the store.
func (db *Database) nextFreeRef() DBRef {
	ref := DBRef(0)
	for {
		if _, ok := db.Objects[ref]; !ok {
			return ref
		}
		ref++
	}
}

// AncestryContains reports whether ancestor appears anywhere in start's
// parent chain, walking at most limit levels. Used both by SetParent's
// cycle check and by the attribute store's parent-walk bound.
func (db *Database) AncestryContains(start, ancestor DBRef, limit int) bool {
	cur := start
	for depth := 0; depth <= limit; depth++ {
		obj, ok := db.Objects[cur]
		if !ok || obj.Parent == Nothing || obj.Parent == cur {
			return false
		}
		if obj.Parent == ancestor {
			return true
		}
		cur = obj.Parent
	}
	return false
}

// SetParent sets child's parent to newParent, rejecting the change with
// ErrCycle if child appears anywhere in newParent's own ancestry (which
// would make child its own eventual ancestor once the link is made).
// Passing Nothing for newParent always succeeds and clears the parent.
func (db *Database) SetParent(child, newParent DBRef, nestLim int) error {
	if newParent == Nothing {
		if obj, ok := db.Objects[child]; ok {
			obj.Parent = Nothing
		}
		return nil
	}
	if newParent == child {
		return ErrCycle
	}
	if db.AncestryContains(newParent, child, nestLim) {
		return ErrCycle
	}
	obj, ok := db.Objects[child]
	if !ok {
		return ErrBadTarget
	}
	obj.Parent = newParent
	return nil
}

// MarkGoing flags ref for destruction (phase one of two-phase destroy).
// The object remains linked into its containers until ReapGarbage runs.
func (db *Database) MarkGoing(ref DBRef) {
	if obj, ok := db.Objects[ref]; ok {
		obj.Flags[0] |= FlagGoing
	}
}

// deadExitRoom is the sentinel location exits are relocated to when the
// room that held them is reaped. Nothing means "no such room" under
// TinyMUSH convention; callers may override by configuring a real room.
const deadExitRoom = Nothing

// ReapGarbage completes destruction of ref (phase two): unlinks it from
// every list it belongs to, empties its contents (sending inhabitants to
// their Home and relocating its exits to deadExitRoom), credits destroyer
// into A_DESTROYER if ref is a player, and flips ref's type to garbage.
// destroyer is the dbref to be credited on A_DESTROYER (Nothing if none).
func (db *Database) ReapGarbage(ref, destroyer DBRef) {
	obj, ok := db.Objects[ref]
	if !ok {
		return
	}

	if obj.Location != Nothing {
		db.removeFromList(obj.Location, ref, false)
	}
	switch obj.ObjType() {
	case TypeExit:
		if obj.Exits != Nothing {
			db.removeFromList(obj.Exits, ref, true)
		}
	}

	// Empty contents: send inhabitants home, relocate exits.
	for _, inhabitant := range db.contentsSlice(ref) {
		iobj, ok := db.Objects[inhabitant]
		if !ok {
			continue
		}
		home := iobj.Link
		if home == Nothing || home == ref {
			home = deadExitRoom
		}
		db.removeFromList(ref, inhabitant, false)
		iobj.Location = home
		db.addToList(home, inhabitant, false)
	}
	for _, exit := range db.exitsSlice(ref) {
		if eobj, ok := db.Objects[exit]; ok {
			eobj.Exits = deadExitRoom
		}
	}
	obj.Contents = Nothing
	obj.Exits = Nothing

	obj.Attrs = nil
	if obj.ObjType() == TypePlayer && destroyer != Nothing {
		obj.Attrs = append(obj.Attrs, Attribute{Number: A_DESTROYER, Value: formatDBRef(destroyer)})
	}
	obj.Flags[0] = (obj.Flags[0] &^ TypeMask) | int(TypeGarbage)
	obj.Owner = Nothing
	obj.Parent = Nothing
}

func formatDBRef(ref DBRef) string {
	if ref == Nothing {
		return "#-1"
	}
	n := int(ref)
	if n == 0 {
		return "#0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	s := "#" + string(digits)
	if neg {
		s = "#-" + string(digits)
	}
	return s
}

// contentsSlice walks loc's Contents list, respecting the Next(x)==x
// terminator convention, and returns every member as a slice.
func (db *Database) contentsSlice(loc DBRef) []DBRef {
	return db.walkList(loc, true)
}

// exitsSlice walks loc's Exits list the same way.
func (db *Database) exitsSlice(loc DBRef) []DBRef {
	return db.walkList(loc, false)
}

func (db *Database) walkList(loc DBRef, contents bool) []DBRef {
	obj, ok := db.Objects[loc]
	if !ok {
		return nil
	}
	head := obj.Exits
	if contents {
		head = obj.Contents
	}
	var out []DBRef
	seen := make(map[DBRef]bool)
	cur := head
	for cur != Nothing && !seen[cur] {
		seen[cur] = true
		out = append(out, cur)
		member, ok := db.Objects[cur]
		if !ok {
			break
		}
		if member.Next == cur {
			break // Next(x)==x terminator
		}
		cur = member.Next
	}
	return out
}

// removeFromList splices ref out of loc's contents (or exits, if
// exits==true) list, preserving order of the remaining members.
func (db *Database) removeFromList(loc, ref DBRef, exits bool) {
	locObj, ok := db.Objects[loc]
	if !ok {
		return
	}
	head := &locObj.Contents
	if exits {
		head = &locObj.Exits
	}
	if *head == ref {
		if o, ok := db.Objects[ref]; ok {
			*head = o.Next
			o.Next = Nothing
		} else {
			*head = Nothing
		}
		return
	}
	prev := *head
	seen := make(map[DBRef]bool)
	for prev != Nothing && !seen[prev] {
		seen[prev] = true
		prevObj, ok := db.Objects[prev]
		if !ok {
			return
		}
		if prevObj.Next == ref {
			if o, ok := db.Objects[ref]; ok {
				prevObj.Next = o.Next
				o.Next = Nothing
			} else {
				prevObj.Next = Nothing
			}
			return
		}
		prev = prevObj.Next
	}
}

// addToList prepends ref onto loc's contents (or exits) list, refusing
// if ref is already present (which would introduce a real cycle).
func (db *Database) addToList(loc, ref DBRef, exits bool) {
	locObj, ok := db.Objects[loc]
	if !ok {
		return
	}
	robj, ok := db.Objects[ref]
	if !ok {
		return
	}
	head := &locObj.Contents
	if exits {
		head = &locObj.Exits
	}
	cur := *head
	seen := make(map[DBRef]bool)
	for cur != Nothing && !seen[cur] {
		if cur == ref {
			return
		}
		seen[cur] = true
		if o, ok := db.Objects[cur]; ok {
			cur = o.Next
		} else {
			break
		}
	}
	robj.Next = *head
	*head = ref
}

// SafeContents returns loc's contents as a slice, tolerating a malformed
// (cyclic) list instead of looping forever.
func (db *Database) SafeContents(loc DBRef) []DBRef {
	return db.contentsSlice(loc)
}

// SafeExits returns loc's exits as a slice, same guarantee as SafeContents.
func (db *Database) SafeExits(loc DBRef) []DBRef {
	return db.exitsSlice(loc)
}

// A_DESTROYER is the well-known attribute a reaped player's destroyer is
// recorded under.
const A_DESTROYER = 245
