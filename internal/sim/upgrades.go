package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownUpgrade is returned by ApplyUpgrade for ids it does not know.
var ErrUnknownUpgrade = errors.New("unknown upgrade")

// Upgrade ids.
const (
	UpgradeToughSkin  = "tough_skin"
	UpgradeSlewDem    = "slew_dem"
	UpgradeLowProfile = "low_profile"
	UpgradeDampening  = "dampening"
)

// UpgradeInfo describes an upgrade for menus.
type UpgradeInfo struct {
	ID          string
	Name        string
	Description string
}

// Upgrades lists every upgrade in menu order.
var Upgrades = []UpgradeInfo{
	{UpgradeToughSkin, "Tough Skin", "+20 max health and a full heal"},
	{UpgradeSlewDem, "Slew Dem", "call in allies and cool the beef"},
	{UpgradeLowProfile, "Low Profile", "halve the beef"},
	{UpgradeDampening, "Keep It Quiet", "loot on the street heats things up slower"},
}

// ApplyUpgrade applies a player upgrade by id.
func (w *World) ApplyUpgrade(id string) error {
	p := w.player
	if p == nil {
		return fmt.Errorf("apply %q: no player", id)
	}
	switch id {
	case UpgradeToughSkin:
		p.MaxHealth += 20
		p.Health = p.MaxHealth
	case UpgradeSlewDem:
		w.spawnAllies(2 + w.stats.PlayerLevel)
		w.econ.AddHeat(-w.tuning.Economy.AllyCallInRelief)
	case UpgradeLowProfile:
		w.econ.ScaleHeat(0.5)
	case UpgradeDampening:
		p.Dampening = math.Min(100, p.Dampening+10)
	default:
		return fmt.Errorf("apply %q: %w", id, ErrUnknownUpgrade)
	}
	w.stats.UpgradesTaken++
	return nil
}
