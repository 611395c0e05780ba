package ranking

import "bridgeofhope/internal/model"

// Tiers is the canonical ascending table, keyed off items donated.
var Tiers = []model.Tier{
	{Name: "Bronze", MinItems: 1},
	{Name: "Silver", MinItems: 3},
	{Name: "Gold", MinItems: 5},
	{Name: "Sapphire", MinItems: 10},
	{Name: "Ruby", MinItems: 15},
	{Name: "Emerald", MinItems: 20},
	{Name: "Amethyst", MinItems: 25},
	{Name: "Pearl", MinItems: 30},
	{Name: "Obsidian", MinItems: 40},
	{Name: "Diamond", MinItems: 50},
}

// TierFor returns the highest tier whose threshold items reaches, or nil
// below the entry tier.
func TierFor(items int) *model.Tier {
	for i := len(Tiers) - 1; i >= 0; i-- {
		if items >= Tiers[i].MinItems {
			t := Tiers[i]
			return &t
		}
	}
	return nil
}

func BadgeFor(rank int) model.Badge {
	switch rank {
	case 1:
		return model.BadgeCrown
	case 2, 3:
		return model.BadgeMedal
	}
	return model.BadgeNone
}
