package server

import (
	"strings"

	"github.com/tinymush/coremush/pkg/eval"
	"github.com/tinymush/coremush/pkg/eval/functions"
	"github.com/tinymush/coremush/pkg/gamedb"
	"github.com/tinymush/coremush/pkg/lock"
)

// wildMatchCI is a case-insensitive wrapper around wildMatchSimple
// (admin_commands.go), kept here since every $-command and lock-pattern
// matcher in this package calls it by this name.
func wildMatchCI(pattern, str string) bool {
	return wildMatchSimple(strings.ToLower(pattern), strings.ToLower(str))
}

// Lock attribute numbers (from attrs.go well-known attrs). Kept here
// because every command handler that checks a specific lock family
// (enter/leave/use/give/...) references these by name.
const (
	aLock   = 42 // A_LOCK — default lock
	aFail   = 3  // A_FAIL
	aOFail  = 2  // A_OFAIL
	aAFail  = 13 // A_AFAIL
	aSucc   = 4  // A_SUCC
	aOSucc  = 1  // A_OSUCC
	aASucc  = 12 // A_ASUCC
	aDrop   = 9  // A_DROP
	aODrop  = 8  // A_ODROP
	aADrop  = 14 // A_ADROP
	aLEnter = 59 // A_LENTER — enter lock
	aLLeave = 60 // A_LLEAVE — leave lock
	aLUse   = 62 // A_LUSE — use lock
	aLGive  = 63 // A_LGIVE — give lock
	aLRecv  = 87 // A_LRECEIVE — receive lock
	aEFail  = 66 // A_EFAIL
	aOEFail = 67 // A_OEFAIL
	aAEFail = 68 // A_AEFAIL
	aLFail  = 69 // A_LFAIL
	aOLFail = 70 // A_OLFAIL
	aALFail = 71 // A_ALFAIL
	aUFail  = 75 // A_UFAIL
	aOUFail = 76 // A_OUFAIL
	aAUFail = 77 // A_AUFAIL
	aGFail  = 129 // A_GFAIL
	aOGFail = 130 // A_OGFAIL
	aAGFail = 131 // A_AGFAIL
	aRFail  = 132 // A_RFAIL
	aORFail = 133 // A_ORFAIL
	aARFail = 134 // A_ARFAIL
)

// gameLockDeps adapts *Game to lock.Deps so the C6 package carries no
// dependency on pkg/server.
type gameLockDeps struct {
	g *Game
}

func (d gameLockDeps) MatchObject(player gamedb.DBRef, name string) gamedb.DBRef {
	return d.g.MatchObject(player, name)
}
func (d gameLockDeps) LookupPlayer(name string) gamedb.DBRef { return d.g.LookupPlayer(name) }
func (d gameLockDeps) GetAttrText(obj gamedb.DBRef, attrNum int) string {
	return d.g.GetAttrText(obj, attrNum)
}
func (d gameLockDeps) EvalAttrText(obj, enactor gamedb.DBRef, attrNum int) string {
	attrText := d.g.GetAttrText(obj, attrNum)
	if attrText == "" {
		return ""
	}
	ctx := MakeEvalContextForObj(d.g, obj, enactor, func(c *eval.EvalContext) {
		functions.RegisterAll(c)
	})
	return ctx.Exec(attrText, eval.EvFCheck|eval.EvEval, nil)
}
func (d gameLockDeps) ObjName(obj gamedb.DBRef) string          { return d.g.ObjName(obj) }
func (d gameLockDeps) SafeContents(obj gamedb.DBRef) []gamedb.DBRef { return d.g.DB.SafeContents(obj) }
func (d gameLockDeps) Object(ref gamedb.DBRef) (*gamedb.Object, bool) {
	o, ok := d.g.DB.Objects[ref]
	return o, ok
}
func (d gameLockDeps) AttrNumByName(name string) (int, bool) {
	if def, ok := d.g.DB.AttrByName[name]; ok {
		return def.Number, true
	}
	return 0, false
}
func (d gameLockDeps) IsWizard(player gamedb.DBRef) bool { return Wizard(d.g, player) }
func (d gameLockDeps) IsGod(obj gamedb.DBRef) bool       { return IsGod(d.g, obj) }
func (d gameLockDeps) PassLocks(player gamedb.DBRef) bool { return PassLocks(d.g, player) }

// ParseBoolExp parses a lock string into a BoolExp tree, resolving names
// via g as seen by player.
func ParseBoolExp(g *Game, player gamedb.DBRef, lockStr string) *gamedb.BoolExp {
	return lock.Parse(gameLockDeps{g}, player, lockStr)
}

// EvalBoolExp evaluates a boolean lock expression tree: player is the
// object being tested, thing is the lock's owner, from is the object
// that triggered the check, depth is the current indirection depth.
func EvalBoolExp(g *Game, player, thing, from gamedb.DBRef, b *gamedb.BoolExp, depth int) bool {
	return lock.Eval(gameLockDeps{g}, player, thing, from, b, depth)
}

// UnparseBoolExp converts a BoolExp tree back to a human-readable lock string.
func UnparseBoolExp(g *Game, b *gamedb.BoolExp) string {
	return lock.Unparse(gameLockDeps{g}, b)
}

// SerializeBoolExp converts a parsed BoolExp to a storable string using #dbref notation.
func SerializeBoolExp(b *gamedb.BoolExp) string {
	return lock.Serialize(b)
}

// CouldDoItStrict checks if player passes the lock without wizard bypass.
func CouldDoItStrict(g *Game, player, thing gamedb.DBRef, lockAttr int) bool {
	return lock.CouldDoItStrict(gameLockDeps{g}, player, thing, lockAttr)
}

// CouldDoIt checks if player passes the lock on thing for the given lock attribute.
func CouldDoIt(g *Game, player, thing gamedb.DBRef, lockAttr int) bool {
	return lock.CouldDoIt(gameLockDeps{g}, player, thing, lockAttr)
}

// HandleLockFailure sends failure messages and queues AFAIL action when a lock check fails.
func HandleLockFailure(g *Game, d *Descriptor, thing gamedb.DBRef, failAttr, oFailAttr, aFailAttr int, defaultMsg string) {
	failText := g.GetAttrText(thing, failAttr)
	if failText != "" {
		failText = evalExpr(g, d.Player, failText)
		d.Send(failText)
	} else {
		d.Send(defaultMsg)
	}

	oFailText := g.GetAttrText(thing, oFailAttr)
	if oFailText != "" {
		oFailText = evalExpr(g, d.Player, oFailText)
		loc := g.PlayerLocation(d.Player)
		g.Conns.SendToRoomExcept(g.DB, loc, d.Player,
			g.PlayerName(d.Player)+" "+oFailText)
	}

	g.QueueAttrAction(thing, d.Player, aFailAttr, nil)
}
