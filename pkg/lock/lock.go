// Package lock implements the C6 boolean lock-expression parser and
// evaluator (spec §4.6): the "&|!@+=$" lock grammar TinyMUSH attaches to
// A_LOCK and its many lock-family attributes (enter/leave/use/give/...).
// It is generalized from the original single-Game implementation behind
// a Deps interface so it carries no dependency on pkg/server.
package lock

import (
	"strconv"
	"strings"

	"github.com/tinymush/coremush/pkg/gamedb"
)

// Deps is everything the parser/evaluator needs from the surrounding
// game world. A *server.Game satisfies this trivially; tests can supply
// a minimal fake.
type Deps interface {
	// MatchObject resolves name to a dbref as seen by player, or
	// gamedb.Nothing if nothing matches.
	MatchObject(player gamedb.DBRef, name string) gamedb.DBRef
	// LookupPlayer resolves a bare player name (no leading *), or
	// gamedb.Nothing.
	LookupPlayer(name string) gamedb.DBRef
	// GetAttrText returns the (already parent-resolved) text of an
	// attribute on obj.
	GetAttrText(obj gamedb.DBRef, attrNum int) string
	// EvalAttrText evaluates attrNum on obj as softcode with enactor as
	// the %N/causing player, returning the evaluation result. Used for
	// the '/' (BoolEval) lock key type.
	EvalAttrText(obj, enactor gamedb.DBRef, attrNum int) string
	// ObjName renders a dbref for display in UnparseBoolExp.
	ObjName(obj gamedb.DBRef) string
	// SafeContents returns obj's contents, tolerating malformed lists.
	SafeContents(obj gamedb.DBRef) []gamedb.DBRef
	// Object returns the raw object record, if any.
	Object(ref gamedb.DBRef) (*gamedb.Object, bool)
	// AttrNumByName resolves a name (built-in or user-defined) to its
	// attribute number.
	AttrNumByName(name string) (int, bool)
	// IsWizard reports whether player holds the wizard flag.
	IsWizard(player gamedb.DBRef) bool
	// IsGod reports whether obj is dbref #1 (or the configured God).
	IsGod(obj gamedb.DBRef) bool
	// PassLocks reports whether player holds POW_PASS_LOCKS.
	PassLocks(player gamedb.DBRef) bool
}

// Attribute numbers used directly by the evaluator/high-level checks.
const aLock = 42 // A_LOCK

// MaxIndirDepth bounds @-lock indirection to prevent infinite loops.
const MaxIndirDepth = 20

type parser struct {
	deps   Deps
	player gamedb.DBRef
	src    string
	pos    int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	ch := p.peek()
	if ch != 0 {
		p.pos++
	}
	return ch
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

// Parse parses a lock string into a BoolExp tree using deps to resolve
// object names and attribute names.
//
//	E → T ('|' E)?
//	T → F ('&' T)?
//	F → '!' F | '@' L | '+' L | '=' L | '$' L | L
//	L → '(' E ')' | '#' number | name ':' pattern | name '/' pattern | name
func Parse(deps Deps, player gamedb.DBRef, lockStr string) *gamedb.BoolExp {
	lockStr = strings.TrimSpace(lockStr)
	if lockStr == "" {
		return nil
	}
	p := &parser{deps: deps, player: player, src: lockStr}
	return p.parseE()
}

func (p *parser) parseE() *gamedb.BoolExp {
	left := p.parseT()
	p.skipSpaces()
	if p.peek() == '|' {
		p.advance()
		right := p.parseE()
		return &gamedb.BoolExp{Type: gamedb.BoolOr, Sub1: left, Sub2: right}
	}
	return left
}

func (p *parser) parseT() *gamedb.BoolExp {
	left := p.parseF()
	p.skipSpaces()
	if p.peek() == '&' {
		p.advance()
		right := p.parseT()
		return &gamedb.BoolExp{Type: gamedb.BoolAnd, Sub1: left, Sub2: right}
	}
	return left
}

func (p *parser) parseF() *gamedb.BoolExp {
	p.skipSpaces()
	switch p.peek() {
	case '!':
		p.advance()
		sub := p.parseF()
		return &gamedb.BoolExp{Type: gamedb.BoolNot, Sub1: sub}
	case '@':
		p.advance()
		sub := p.parseLiteral()
		if sub == nil || sub.Type != gamedb.BoolConst {
			return nil
		}
		return &gamedb.BoolExp{Type: gamedb.BoolIndir, Sub1: sub}
	case '+':
		p.advance()
		sub := p.parseLiteral()
		if sub == nil || (sub.Type != gamedb.BoolConst && sub.Type != gamedb.BoolAttr) {
			return nil
		}
		return &gamedb.BoolExp{Type: gamedb.BoolCarry, Sub1: sub}
	case '=':
		p.advance()
		sub := p.parseLiteral()
		if sub == nil || (sub.Type != gamedb.BoolConst && sub.Type != gamedb.BoolAttr) {
			return nil
		}
		return &gamedb.BoolExp{Type: gamedb.BoolIs, Sub1: sub}
	case '$':
		p.advance()
		sub := p.parseLiteral()
		if sub == nil || sub.Type != gamedb.BoolConst {
			return nil
		}
		return &gamedb.BoolExp{Type: gamedb.BoolOwner, Sub1: sub}
	default:
		return p.parseLiteral()
	}
}

func (p *parser) parseLiteral() *gamedb.BoolExp {
	p.skipSpaces()
	if p.peek() == '(' {
		p.advance()
		sub := p.parseE()
		p.skipSpaces()
		if p.peek() == ')' {
			p.advance()
		}
		return sub
	}

	start := p.pos
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '&' || ch == '|' || ch == '!' || ch == '(' || ch == ')' {
			break
		}
		if ch == ':' || ch == '/' {
			name := strings.TrimSpace(p.src[start:p.pos])
			sep := ch
			p.pos++
			patStart := p.pos
			for p.pos < len(p.src) {
				pc := p.src[p.pos]
				if pc == '&' || pc == '|' || pc == ')' {
					break
				}
				p.pos++
			}
			pattern := strings.TrimSpace(p.src[patStart:p.pos])
			if sep == ':' {
				return &gamedb.BoolExp{Type: gamedb.BoolAttr, Thing: p.resolveAttrNum(name), StrVal: pattern}
			}
			return &gamedb.BoolExp{Type: gamedb.BoolEval, Thing: p.resolveAttrNum(name), StrVal: pattern}
		}
		p.pos++
	}

	token := strings.TrimSpace(p.src[start:p.pos])
	if token == "" {
		return nil
	}

	if token[0] == '#' {
		if n, err := strconv.Atoi(token[1:]); err == nil {
			return &gamedb.BoolExp{Type: gamedb.BoolConst, Thing: n}
		}
	}

	ref := p.deps.MatchObject(p.player, token)
	if ref == gamedb.Nothing {
		ref = p.deps.LookupPlayer(token)
	}
	if ref != gamedb.Nothing {
		return &gamedb.BoolExp{Type: gamedb.BoolConst, Thing: int(ref)}
	}

	// Unresolved name — an impossible lock (nothing matches), matching
	// fail-closed behavior rather than fail-open.
	return &gamedb.BoolExp{Type: gamedb.BoolConst, Thing: int(gamedb.Nothing)}
}

func (p *parser) resolveAttrNum(name string) int {
	if n, err := strconv.Atoi(name); err == nil && n >= 0 {
		return n
	}
	upper := strings.ToUpper(name)
	for num, n := range gamedb.WellKnownAttrs {
		if n == upper {
			return num
		}
	}
	if num, ok := p.deps.AttrNumByName(upper); ok {
		return num
	}
	return -1
}

// Eval evaluates a parsed lock expression: player is the object being
// tested, thing is the lock's owner, from is the object that triggered
// the check (used by BoolEval's softcode attribute).
func Eval(deps Deps, player, thing, from gamedb.DBRef, b *gamedb.BoolExp, depth int) bool {
	if b == nil {
		return true
	}
	if depth > MaxIndirDepth {
		return false
	}

	switch b.Type {
	case gamedb.BoolAnd:
		return Eval(deps, player, thing, from, b.Sub1, depth) && Eval(deps, player, thing, from, b.Sub2, depth)
	case gamedb.BoolOr:
		return Eval(deps, player, thing, from, b.Sub1, depth) || Eval(deps, player, thing, from, b.Sub2, depth)
	case gamedb.BoolNot:
		return !Eval(deps, player, thing, from, b.Sub1, depth)

	case gamedb.BoolConst:
		target := gamedb.DBRef(b.Thing)
		if target == gamedb.Nothing {
			return false
		}
		if player == target {
			return true
		}
		return carries(deps, player, target)

	case gamedb.BoolAttr:
		if b.Thing < 0 {
			return false
		}
		pattern := b.StrVal
		if wildMatchCI(pattern, deps.GetAttrText(player, b.Thing)) {
			return true
		}
		for _, next := range deps.SafeContents(player) {
			if wildMatchCI(pattern, deps.GetAttrText(next, b.Thing)) {
				return true
			}
		}
		return false

	case gamedb.BoolEval:
		if b.Thing < 0 {
			return false
		}
		attrText := deps.GetAttrText(from, b.Thing)
		if attrText == "" {
			return false
		}
		result := deps.EvalAttrText(from, player, b.Thing)
		return wildMatchCI(b.StrVal, result)

	case gamedb.BoolIndir:
		if b.Sub1 == nil || b.Sub1.Type != gamedb.BoolConst || b.Sub1.Thing < 0 {
			return false
		}
		target := gamedb.DBRef(b.Sub1.Thing)
		lockText := deps.GetAttrText(target, aLock)
		if lockText == "" {
			if tObj, ok := deps.Object(target); ok && tObj.Lock != nil {
				return Eval(deps, player, target, from, tObj.Lock, depth+1)
			}
			return true
		}
		parsed := Parse(deps, player, lockText)
		return Eval(deps, player, target, from, parsed, depth+1)

	case gamedb.BoolCarry:
		if b.Sub1 == nil {
			return false
		}
		if b.Sub1.Type == gamedb.BoolConst {
			return carries(deps, player, gamedb.DBRef(b.Sub1.Thing))
		}
		if b.Sub1.Type == gamedb.BoolAttr {
			if b.Sub1.Thing < 0 {
				return false
			}
			for _, next := range deps.SafeContents(player) {
				if wildMatchCI(b.Sub1.StrVal, deps.GetAttrText(next, b.Sub1.Thing)) {
					return true
				}
			}
		}
		return false

	case gamedb.BoolIs:
		if b.Sub1 == nil {
			return false
		}
		if b.Sub1.Type == gamedb.BoolConst {
			return player == gamedb.DBRef(b.Sub1.Thing)
		}
		if b.Sub1.Type == gamedb.BoolAttr {
			if b.Sub1.Thing < 0 {
				return false
			}
			return wildMatchCI(b.Sub1.StrVal, deps.GetAttrText(player, b.Sub1.Thing))
		}
		return false

	case gamedb.BoolOwner:
		if b.Sub1 == nil || b.Sub1.Type != gamedb.BoolConst {
			return false
		}
		target := gamedb.DBRef(b.Sub1.Thing)
		pObj, ok1 := deps.Object(player)
		tObj, ok2 := deps.Object(target)
		if !ok1 || !ok2 {
			return false
		}
		return pObj.Owner == tObj.Owner
	}
	return false
}

func carries(deps Deps, player, target gamedb.DBRef) bool {
	for _, next := range deps.SafeContents(player) {
		if next == target {
			return true
		}
	}
	return false
}

// Unparse renders a BoolExp back to its human-readable lock-string form.
func Unparse(deps Deps, b *gamedb.BoolExp) string {
	if b == nil {
		return ""
	}
	switch b.Type {
	case gamedb.BoolAnd:
		left := Unparse(deps, b.Sub1)
		if b.Sub1 != nil && b.Sub1.Type == gamedb.BoolOr {
			left = "(" + left + ")"
		}
		return left + "&" + Unparse(deps, b.Sub2)
	case gamedb.BoolOr:
		return Unparse(deps, b.Sub1) + "|" + Unparse(deps, b.Sub2)
	case gamedb.BoolNot:
		return "!" + Unparse(deps, b.Sub1)
	case gamedb.BoolConst:
		ref := gamedb.DBRef(b.Thing)
		if ref == gamedb.Nothing {
			return "#-1"
		}
		if name := deps.ObjName(ref); name != "" {
			return name + "(#" + strconv.Itoa(b.Thing) + ")"
		}
		return "#" + strconv.Itoa(b.Thing)
	case gamedb.BoolAttr:
		return attrLabel(b.Thing) + ":" + b.StrVal
	case gamedb.BoolEval:
		return attrLabel(b.Thing) + "/" + b.StrVal
	case gamedb.BoolIndir:
		return "@" + Unparse(deps, b.Sub1)
	case gamedb.BoolCarry:
		return "+" + Unparse(deps, b.Sub1)
	case gamedb.BoolIs:
		return "=" + Unparse(deps, b.Sub1)
	case gamedb.BoolOwner:
		return "$" + Unparse(deps, b.Sub1)
	}
	return "?"
}

func attrLabel(num int) string {
	if name, ok := gamedb.WellKnownAttrs[num]; ok {
		return name
	}
	return strconv.Itoa(num)
}

// serializeDeps renders every object as a bare #dbref; Unparse calls no
// other Deps method.
type serializeDeps struct{ Deps }

func (serializeDeps) ObjName(gamedb.DBRef) string { return "" }

// Serialize converts a parsed BoolExp to the storable #dbref-only form.
func Serialize(b *gamedb.BoolExp) string {
	return Unparse(serializeDeps{}, b)
}

func wildMatchCI(pattern, str string) bool {
	return wildMatch(strings.ToLower(pattern), strings.ToLower(str))
}

// wildMatch is a '*'/'?' glob matcher (no regexp dependency, matching
// the lock grammar's own pattern language rather than shell globbing).
func wildMatch(pattern, str string) bool {
	return wildMatchRec(pattern, str, 0, 0)
}

func wildMatchRec(pattern, str string, pi, si int) bool {
	for pi < len(pattern) {
		switch pattern[pi] {
		case '*':
			for pi < len(pattern) && pattern[pi] == '*' {
				pi++
			}
			if pi == len(pattern) {
				return true
			}
			for si <= len(str) {
				if wildMatchRec(pattern, str, pi, si) {
					return true
				}
				si++
			}
			return false
		case '?':
			if si >= len(str) {
				return false
			}
			pi++
			si++
		default:
			if si >= len(str) || pattern[pi] != str[si] {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(str)
}

// CouldDoItStrict checks player against thing's lockAttr with no wizard
// or POW_PASS_LOCKS bypass. Used for absolute locks (e.g. vehicle leave
// locks that should bind even a wizard).
func CouldDoItStrict(deps Deps, player, thing gamedb.DBRef, lockAttr int) bool {
	lockText := deps.GetAttrText(thing, lockAttr)
	if lockText == "" {
		return true
	}
	parsed := Parse(deps, player, lockText)
	return Eval(deps, player, thing, thing, parsed, 0)
}

// CouldDoIt checks player against thing's lockAttr, honoring wizard and
// POW_PASS_LOCKS bypass the way ordinary command locks do.
func CouldDoIt(deps Deps, player, thing gamedb.DBRef, lockAttr int) bool {
	if deps.PassLocks(player) {
		return true
	}
	if deps.IsWizard(player) {
		if !deps.IsGod(thing) || deps.IsGod(player) {
			return true
		}
	}
	lockText := deps.GetAttrText(thing, lockAttr)
	if lockText != "" {
		parsed := Parse(deps, player, lockText)
		return Eval(deps, player, thing, thing, parsed, 0)
	}
	if lockAttr == aLock {
		if tObj, ok := deps.Object(thing); ok && tObj.Lock != nil {
			return Eval(deps, player, thing, thing, tObj.Lock, 0)
		}
	}
	return true
}
