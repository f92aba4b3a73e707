package gamedb

import "strings"

// AttrDesc is what the dictionary returns for either a predefined or a
// user-allocated ("vattr") attribute number.
type AttrDesc struct {
	Number    int
	Name      string
	Flags     int
	IsVattr   bool
}

// NamePatternOverride lets a configured wildcard pattern override the
// default flags assigned to newly-minted user attribute names (the
// "per-name pattern table" of spec §4.3), e.g. "LCON_*" getting AFDark
// regardless of the global vattr default.
type NamePatternOverride struct {
	Pattern string
	Flags   int
}

// AttrDictionary is the process-wide name<->number map described in
// spec C3: predefined attributes are compile-time constants below
// A_USER_START; everything at or above it is allocated on first use via
// Mkattr and stored in db.AttrNames/AttrByName.
type AttrDictionary struct {
	db          *Database
	defaultFlags int
	overrides   []NamePatternOverride
	nextNumber  int
}

// NewAttrDictionary wraps db with dictionary operations. defaultFlags is
// applied to freshly-minted vattrs that match no override pattern.
func NewAttrDictionary(db *Database, defaultFlags int, overrides []NamePatternOverride) *AttrDictionary {
	next := A_USER_START
	for n := range db.AttrNames {
		if n >= next {
			next = n + 1
		}
	}
	return &AttrDictionary{db: db, defaultFlags: defaultFlags, overrides: overrides, nextNumber: next}
}

// canonicalize upper-cases and bounds a candidate attribute name the way
// TinyMUSH's ok_attr_name does — at most 32 characters after trimming.
func canonicalize(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 32 {
		return "", false
	}
	for _, r := range name {
		if r <= ' ' || r == ':' || r == '/' {
			return "", false
		}
	}
	return strings.ToUpper(name), true
}

// LookupByName resolves a name to its descriptor. It checks the
// predefined name table first, then the user (vattr) hash, then as a
// last resort attempts a prefix match against predefined names.
func (d *AttrDictionary) LookupByName(name string) (AttrDesc, bool) {
	upper, ok := canonicalize(name)
	if !ok {
		return AttrDesc{}, false
	}
	for num, n := range WellKnownAttrs {
		if n == upper {
			return AttrDesc{Number: num, Name: n, Flags: WellKnownAttrFlags[num]}, true
		}
	}
	if def, ok := d.db.AttrByName[upper]; ok {
		return AttrDesc{Number: def.Number, Name: def.Name, Flags: def.Flags, IsVattr: def.Number >= A_USER_START}, true
	}
	var best string
	var bestNum int
	found := false
	for num, n := range WellKnownAttrs {
		if strings.HasPrefix(n, upper) {
			if !found || len(n) < len(best) {
				best, bestNum, found = n, num, true
			}
		}
	}
	if found {
		return AttrDesc{Number: bestNum, Name: best, Flags: WellKnownAttrFlags[bestNum]}, true
	}
	return AttrDesc{}, false
}

// LookupByNumber resolves a number to its descriptor, whether predefined
// or user-allocated.
func (d *AttrDictionary) LookupByNumber(num int) (AttrDesc, bool) {
	if num < A_USER_START {
		if name, ok := WellKnownAttrs[num]; ok {
			return AttrDesc{Number: num, Name: name, Flags: WellKnownAttrFlags[num]}, true
		}
		return AttrDesc{}, false
	}
	if def, ok := d.db.AttrNames[num]; ok {
		return AttrDesc{Number: def.Number, Name: def.Name, Flags: def.Flags, IsVattr: true}, true
	}
	return AttrDesc{}, false
}

// Mkattr allocates a new user attribute number for name if one doesn't
// already exist, returning the (possibly pre-existing) descriptor.
// Flags for a freshly-allocated vattr come from the first matching
// pattern override, falling back to the dictionary's default flags.
func (d *AttrDictionary) Mkattr(name string) (AttrDesc, bool) {
	upper, ok := canonicalize(name)
	if !ok {
		return AttrDesc{}, false
	}
	if desc, ok := d.LookupByName(upper); ok {
		return desc, true
	}
	flags := d.defaultFlags
	for _, o := range d.overrides {
		if wildcardMatch(o.Pattern, upper) {
			flags = o.Flags
			break
		}
	}
	num := d.nextNumber
	d.nextNumber++
	d.db.AddAttrDef(num, upper, flags)
	return AttrDesc{Number: num, Name: upper, Flags: flags, IsVattr: true}, true
}

// wildcardMatch implements TinyMUSH-style '*'/'?' glob matching used for
// attribute-name pattern overrides.
func wildcardMatch(pattern, s string) bool {
	return globMatch(pattern, s)
}

func globMatch(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatch(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		}
	}
	return len(s) == 0
}
