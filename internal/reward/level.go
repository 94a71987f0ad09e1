// Package reward computes the gamified side of a nap: XP, streaks, levels
// and the weekly overview. Everything here is a pure function.
package reward

import (
	"fmt"

	"github.com/hammamikhairi/napflow/internal/domain"
)

// Level is a named XP tier.
type Level struct {
	Name  string `yaml:"name"`
	MinXP int    `yaml:"min_xp"`
}

// DefaultLevels is the built-in tier table, ascending by MinXP.
var DefaultLevels = []Level{
	{Name: "Schlafwandler", MinXP: 0},
	{Name: "Novize", MinXP: 100},
	{Name: "Meister", MinXP: 500},
	{Name: "Traum-Reisender", MinXP: 1500},
	{Name: "Schlaf-Gott", MinXP: 5000},
}

// Progress is a user's position in the level table.
type Progress struct {
	Current  Level
	Next     *Level // nil at max level
	Fraction float64
	XPToNext int
}

// MaxLevel reports whether there is no level above the current one.
func (p Progress) MaxLevel() bool {
	return p.Next == nil
}

// ValidateLevels checks that a table is non-empty, starts at zero and is
// strictly ascending.
func ValidateLevels(table []Level) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: table is empty", domain.ErrInvalidLevels)
	}
	if table[0].MinXP != 0 {
		return fmt.Errorf("%w: first level must start at 0 XP, got %d", domain.ErrInvalidLevels, table[0].MinXP)
	}
	for i := 1; i < len(table); i++ {
		if table[i].MinXP <= table[i-1].MinXP {
			return fmt.Errorf("%w: %q (%d XP) does not exceed %q (%d XP)",
				domain.ErrInvalidLevels, table[i].Name, table[i].MinXP, table[i-1].Name, table[i-1].MinXP)
		}
	}
	return nil
}

// ComputeLevel finds the highest level whose threshold does not exceed xp
// and the lowest one that does. A threshold equal to xp counts as reached.
func ComputeLevel(xp int, table []Level) Progress {
	if len(table) == 0 {
		return Progress{Fraction: 1}
	}

	current := 0
	for i, l := range table {
		if xp >= l.MinXP {
			current = i
		}
	}

	p := Progress{Current: table[current]}
	if current+1 >= len(table) {
		p.Fraction = 1
		return p
	}

	next := table[current+1]
	p.Next = &next
	p.XPToNext = next.MinXP - xp

	span := next.MinXP - p.Current.MinXP
	p.Fraction = clamp(float64(xp-p.Current.MinXP)/float64(span), 0, 1)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
