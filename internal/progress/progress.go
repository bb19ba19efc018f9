// Package progress derives display metrics from a goal's entry list.
package progress

import (
	"fmt"
	"math"

	"github.com/templui/goalkeeper/internal/model"
)

// Progress is the aggregate state of one goal. Percentages never exceed
// 100 and ActivePercent+InactivePercent never exceeds 100. InactivePercent
// is floored at 0; ActivePercent goes negative when debits outweigh credits.
type Progress struct {
	ActiveTotal     float64 `json:"activeTotal"`
	InactiveTotal   float64 `json:"inactiveTotal"`
	Total           float64 `json:"total"`
	Target          float64 `json:"target"`
	ActivePercent   float64 `json:"activePercent"`
	InactivePercent float64 `json:"inactivePercent"`
	Label           string  `json:"label"`
}

// Formatter renders a money amount for the progress label.
type Formatter interface {
	Format(amount float64) string
}

type plain struct{}

func (plain) Format(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// Compute sums the goal's entries into the active and inactive buckets and
// derives the percentages against the goal amount. It has no side effects.
func Compute(goal model.Goal, f Formatter) Progress {
	if f == nil {
		f = plain{}
	}

	var active, inactive float64
	for _, e := range goal.Entries {
		if e.IsActive {
			active += e.Signed()
		} else {
			inactive += e.Signed()
		}
	}

	target := goal.Amount.Float()

	var activePct, inactivePct float64
	if target > 0 {
		activePct = math.Min(100, active/target*100)
		inactivePct = math.Min(math.Max(0, 100-activePct), inactive/target*100)
		// negative inactive totals draw no arc
		inactivePct = math.Max(0, inactivePct)
	}

	return Progress{
		ActiveTotal:     active,
		InactiveTotal:   inactive,
		Total:           active + inactive,
		Target:          target,
		ActivePercent:   activePct,
		InactivePercent: inactivePct,
		Label:           f.Format(active) + " active · " + f.Format(inactive) + " inactive",
	}
}
