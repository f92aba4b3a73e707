package server

import (
	"github.com/tinymush/coremush/pkg/gamedb"
	"github.com/tinymush/coremush/pkg/match"
)

// gameMatchDeps adapts *Game to match.Deps so the C5 package carries no
// dependency on pkg/server.
type gameMatchDeps struct {
	g *Game
}

func (d gameMatchDeps) Object(ref gamedb.DBRef) (*gamedb.Object, bool) {
	o, ok := d.g.DB.Objects[ref]
	return o, ok
}
func (d gameMatchDeps) Contents(loc gamedb.DBRef) []gamedb.DBRef { return d.g.DB.SafeContents(loc) }
func (d gameMatchDeps) Exits(loc gamedb.DBRef) []gamedb.DBRef    { return d.g.DB.SafeExits(loc) }
func (d gameMatchDeps) Location(actor gamedb.DBRef) gamedb.DBRef { return d.g.PlayerLocation(actor) }
func (d gameMatchDeps) Home(actor gamedb.DBRef) gamedb.DBRef {
	if obj, ok := d.g.DB.Objects[actor]; ok {
		return obj.Link
	}
	return gamedb.Nothing
}
func (d gameMatchDeps) PlayerByName(name string) gamedb.DBRef { return d.g.LookupPlayer(name) }

// CanSeeExit hides an exit flagged DARK from anyone who doesn't control
// it, matching the teacher's dark-exit convention.
func (d gameMatchDeps) CanSeeExit(actor, exit gamedb.DBRef) bool {
	obj, ok := d.g.DB.Objects[exit]
	if !ok {
		return false
	}
	if !obj.HasFlag(gamedb.FlagDark) {
		return true
	}
	return d.g.Controls(actor, exit)
}

// newMatcher starts a C5 multi-pass match for token as seen by actor.
func (g *Game) newMatcher(actor gamedb.DBRef, token string) *match.Matcher {
	return match.Init(gameMatchDeps{g}, actor, token)
}

// MatchObject resolves name to a dbref, running the standard pass order
// (me, here, #dbref, *player/player-by-name, possession, neighbour,
// exits-with-parents). Ambiguous ties collapse to Nothing here, matching
// every existing call site's Nothing-means-"not found" contract; callers
// that want to report ambiguity distinctly should use MatchObjectNoisy.
func (g *Game) MatchObject(player gamedb.DBRef, name string) gamedb.DBRef {
	m := g.newMatcher(player, name)
	m.MatchMe()
	m.MatchHere()
	m.MatchAbsolute()
	m.MatchPlayer()
	m.MatchPossession()
	m.MatchNeighbor()
	m.MatchExitWithParents()
	if result := m.Result(); result != match.Ambiguous {
		return result
	}
	return gamedb.Nothing
}

// MatchObjectNoisy is MatchObject but reports ambiguity and not-found
// outcomes to notify instead of collapsing both to Nothing.
func (g *Game) MatchObjectNoisy(player gamedb.DBRef, name string, notify func(string)) gamedb.DBRef {
	m := g.newMatcher(player, name)
	m.MatchMe()
	m.MatchHere()
	m.MatchAbsolute()
	m.MatchPlayer()
	m.MatchPossession()
	m.MatchNeighbor()
	m.MatchExitWithParents()
	return m.NoisyResult(notify)
}
