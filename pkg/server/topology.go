package server

import (
	"github.com/tinymush/coremush/pkg/gamedb"
	"github.com/tinymush/coremush/pkg/topology"
)

// gameTopologyDeps adapts *Game to topology.Deps so the C9 package
// carries no dependency on pkg/server.
type gameTopologyDeps struct {
	g *Game
}

func (d gameTopologyDeps) Controls(actor, target gamedb.DBRef) bool { return d.g.Controls(actor, target) }
func (d gameTopologyDeps) IsWizard(actor gamedb.DBRef) bool          { return Wizard(d.g, actor) }
func (d gameTopologyDeps) ChargeCost(actor gamedb.DBRef, cost int) bool {
	return d.g.chargeCost(actor, cost)
}

func (d gameTopologyDeps) Money(player gamedb.DBRef) int {
	if d.g.PCache != nil {
		return d.g.PCache.Money(player)
	}
	if obj, ok := d.g.DB.Objects[player]; ok {
		return obj.Pennies
	}
	return 0
}

func (d gameTopologyDeps) AddMoney(player gamedb.DBRef, delta int) bool {
	if d.g.PCache != nil {
		return d.g.PCache.AddMoney(player, delta, false)
	}
	obj, ok := d.g.DB.Objects[player]
	if !ok {
		return false
	}
	if obj.Pennies+delta < 0 {
		return false
	}
	obj.Pennies += delta
	return true
}

func (d gameTopologyDeps) AddToContents(loc, obj gamedb.DBRef)      { d.g.AddToContents(loc, obj) }
func (d gameTopologyDeps) RemoveFromContents(loc, obj gamedb.DBRef) { d.g.RemoveFromContents(loc, obj) }

// topology returns a Topology bound to this Game, used by the command
// handlers in commands.go/admin_commands.go as a thin layer over it.
func (g *Game) topology() *topology.Topology {
	return topology.New(g.DB, gameTopologyDeps{g})
}
