// Package match implements the C5 multi-pass name matcher (spec §4.5):
// init_match/match_*/match_result, generalized from the teacher's
// single-shot Game.MatchObject (pkg/server/commands.go) into a stateful
// matcher that runs one predicate per pass and reconciles exact-vs-prefix
// and cross-pass ambiguity the way the original does across its whole
// command set rather than inline in one function.
package match

import (
	"strings"

	"github.com/tinymush/coremush/pkg/gamedb"
)

// Ambiguous is returned by Result/NoisyResult/LastResult when more than
// one candidate ties at the best tier (exact beating prefix) and no
// stronger pass broke the tie.
const Ambiguous gamedb.DBRef = -2

// Deps is the subset of the object graph and visibility rules the
// matcher needs; an adapter in pkg/server implements it over *Game so
// this package carries no dependency on pkg/server.
type Deps interface {
	Object(ref gamedb.DBRef) (*gamedb.Object, bool)
	Contents(loc gamedb.DBRef) []gamedb.DBRef
	Exits(loc gamedb.DBRef) []gamedb.DBRef
	Location(actor gamedb.DBRef) gamedb.DBRef
	Home(actor gamedb.DBRef) gamedb.DBRef
	PlayerByName(name string) gamedb.DBRef
	CanSeeExit(actor, exit gamedb.DBRef) bool
}

// Matcher accumulates match candidates across one or more passes for a
// single actor/token pair.
type Matcher struct {
	deps  Deps
	actor gamedb.DBRef
	token string

	strongSet bool
	strong    gamedb.DBRef

	exact  map[gamedb.DBRef]bool
	prefix map[gamedb.DBRef]bool

	lastPass gamedb.DBRef
}

// Init begins a new match for token as seen by actor.
func Init(deps Deps, actor gamedb.DBRef, token string) *Matcher {
	return &Matcher{
		deps:   deps,
		actor:  actor,
		token:  strings.TrimSpace(token),
		exact:  make(map[gamedb.DBRef]bool),
		prefix: make(map[gamedb.DBRef]bool),
		lastPass: gamedb.Nothing,
	}
}

func (m *Matcher) setStrong(ref gamedb.DBRef) {
	m.strongSet = true
	m.strong = ref
	m.lastPass = ref
}

// MatchMe matches the literal token "me" to the actor.
func (m *Matcher) MatchMe() {
	if strings.EqualFold(m.token, "me") {
		m.setStrong(m.actor)
	}
}

// MatchHere matches the literal token "here" to the actor's location.
func (m *Matcher) MatchHere() {
	if strings.EqualFold(m.token, "here") {
		m.setStrong(m.deps.Location(m.actor))
	}
}

// MatchAbsolute matches a "#123" token to that dbref directly, without
// checking whether the object exists (callers check with Object/Exists).
func (m *Matcher) MatchAbsolute() {
	if len(m.token) < 2 || m.token[0] != '#' {
		return
	}
	n := 0
	for _, ch := range m.token[1:] {
		if ch < '0' || ch > '9' {
			return
		}
		n = n*10 + int(ch-'0')
	}
	m.setStrong(gamedb.DBRef(n))
}

// MatchPlayer matches a "*Name" token, or a bare name if it happens to
// name a player, via global player lookup.
func (m *Matcher) MatchPlayer() {
	name := m.token
	if len(name) > 0 && name[0] == '*' {
		name = name[1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if ref := m.deps.PlayerByName(name); ref != gamedb.Nothing {
		m.setStrong(ref)
	}
}

// MatchPossession searches the actor's own inventory.
func (m *Matcher) MatchPossession() {
	m.scanWeak(m.deps.Contents(m.actor))
}

// MatchNeighbor searches the actor's location's contents.
func (m *Matcher) MatchNeighbor() {
	m.scanWeak(m.deps.Contents(m.deps.Location(m.actor)))
}

// MatchExit searches the exits of the actor's current room, skipping any
// the actor cannot see (dark room/dark exit/cloak).
func (m *Matcher) MatchExit() {
	m.scanExits(m.deps.Exits(m.deps.Location(m.actor)))
}

// MatchCarriedExit searches the exits attached to objects the actor is
// carrying (rare, but part of the full pass set — e.g. a carried vehicle
// with its own exits).
func (m *Matcher) MatchCarriedExit() {
	for _, carried := range m.deps.Contents(m.actor) {
		m.scanExits(m.deps.Exits(carried))
	}
}

// MatchExitWithParents searches the current room's exits plus the
// exits of its parent chain (zone-style inherited exits).
func (m *Matcher) MatchExitWithParents() {
	m.scanExits(m.deps.Exits(m.deps.Location(m.actor)))
	m.scanParentExits(m.deps.Location(m.actor))
}

// MatchCarriedExitWithParents is MatchCarriedExit extended up each
// carried object's parent chain.
func (m *Matcher) MatchCarriedExitWithParents() {
	for _, carried := range m.deps.Contents(m.actor) {
		m.scanExits(m.deps.Exits(carried))
		m.scanParentExits(carried)
	}
}

func (m *Matcher) scanParentExits(ref gamedb.DBRef) {
	seen := make(map[gamedb.DBRef]bool)
	cur := ref
	for depth := 0; depth < gamedb.DefaultParentNestLimit; depth++ {
		obj, ok := m.deps.Object(cur)
		if !ok || obj.Parent == gamedb.Nothing || seen[obj.Parent] {
			return
		}
		seen[obj.Parent] = true
		m.scanExits(m.deps.Exits(obj.Parent))
		cur = obj.Parent
	}
}

// MatchHome matches the literal token "home" to the actor's home.
func (m *Matcher) MatchHome() {
	if strings.EqualFold(m.token, "home") {
		m.setStrong(m.deps.Home(m.actor))
	}
}

// MatchEverything runs every non-strong pass: possession, neighbour,
// exits (with parents), and absolute/player strong passes too, matching
// the "everything" pass's description as the union of all of them.
func (m *Matcher) MatchEverything() {
	m.MatchAbsolute()
	m.MatchPlayer()
	m.MatchPossession()
	m.MatchNeighbor()
	m.MatchExitWithParents()
}

// scanWeak folds a contents list into the accumulated exact/prefix sets.
func (m *Matcher) scanWeak(refs []gamedb.DBRef) {
	tokenLower := strings.ToLower(m.token)
	var passResult gamedb.DBRef = gamedb.Nothing
	for _, ref := range refs {
		obj, ok := m.deps.Object(ref)
		if !ok {
			continue
		}
		switch matchName(obj.Name, tokenLower) {
		case 2:
			m.exact[ref] = true
			if passResult == gamedb.Nothing {
				passResult = ref
			}
		case 1:
			m.prefix[ref] = true
			if passResult == gamedb.Nothing {
				passResult = ref
			}
		}
	}
	if !m.strongSet {
		m.lastPass = passResult
	}
}

func (m *Matcher) scanExits(exits []gamedb.DBRef) {
	var visible []gamedb.DBRef
	for _, ref := range exits {
		if m.deps.CanSeeExit(m.actor, ref) {
			visible = append(visible, ref)
		}
	}
	m.scanWeak(visible)
}

// matchName returns 2 for an exact (case-insensitive, alias-aware) match,
// 1 for a word-boundary prefix match, 0 for no match. objName may carry
// semicolon-separated aliases, same as the teacher's object names.
func matchName(objName, tokenLower string) int {
	best := 0
	for _, alias := range strings.Split(objName, ";") {
		alias = strings.TrimSpace(alias)
		aliasLower := strings.ToLower(alias)
		if aliasLower == tokenLower {
			return 2
		}
		if stringMatchWord(aliasLower, tokenLower) && best < 1 {
			best = 1
		}
	}
	return best
}

// stringMatchWord reports whether sub is a prefix of any word in src
// (words split on non-alphanumeric separators), mirroring the teacher's
// string_match word-boundary semantics (pkg/server/commands.go).
func stringMatchWord(src, sub string) bool {
	if sub == "" || src == "" {
		return false
	}
	isWordChar := func(b byte) bool {
		return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
	}
	i := 0
	for i < len(src) {
		for i < len(src) && !isWordChar(src[i]) {
			i++
		}
		start := i
		for i < len(src) && isWordChar(src[i]) {
			i++
		}
		word := src[start:i]
		if len(word) >= len(sub) && word[:len(sub)] == sub {
			return true
		}
	}
	return false
}

// Result reconciles every pass run so far: a strong pass (me/here/
// absolute/player/home) preempts anything accumulated by earlier weak
// passes; otherwise exact matches beat prefix matches, and more than one
// surviving candidate at the winning tier is Ambiguous.
func (m *Matcher) Result() gamedb.DBRef {
	if m.strongSet {
		return m.strong
	}
	if len(m.exact) > 0 {
		if len(m.exact) == 1 {
			return onlyKey(m.exact)
		}
		return Ambiguous
	}
	if len(m.prefix) > 0 {
		if len(m.prefix) == 1 {
			return onlyKey(m.prefix)
		}
		return Ambiguous
	}
	return gamedb.Nothing
}

func onlyKey(set map[gamedb.DBRef]bool) gamedb.DBRef {
	for k := range set {
		return k
	}
	return gamedb.Nothing
}

// LastResult returns the most recent pass's own candidate, ignoring
// ambiguity accumulated by earlier passes.
func (m *Matcher) LastResult() gamedb.DBRef {
	return m.lastPass
}

// NoisyResult is Result, additionally invoking notify with a
// user-visible explanation when the outcome is Ambiguous or Nothing.
func (m *Matcher) NoisyResult(notify func(string)) gamedb.DBRef {
	result := m.Result()
	switch result {
	case Ambiguous:
		notify("I don't know which one you mean!")
	case gamedb.Nothing:
		notify("I don't see that here.")
	}
	return result
}
