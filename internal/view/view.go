// Package view turns goals and their progress into display-ready values.
// Nothing here mutates domain data.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/progress"
	"github.com/templui/goalkeeper/internal/sorting"
)

// GaugeRadius is the radius of the circular progress gauge.
const GaugeRadius = 52

// Circumference of the gauge; arc lengths are fractions of it.
var Circumference = 2 * math.Pi * GaugeRadius

type GoalView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Meta      string            `json:"meta"`
	Target    string            `json:"target"`
	EndDate   string            `json:"endDate"`
	EntrySort string            `json:"entrySort"`
	Progress  progress.Progress `json:"progress"`
	Gauge     Gauge             `json:"gauge"`
	Legend    Legend            `json:"legend"`
	Entries   []EntryView       `json:"entries"`
}

// Gauge describes two adjacent arcs: the inactive arc starts where the
// active arc ends, and together they never exceed the circumference.
type Gauge struct {
	Circumference  float64 `json:"circumference"`
	ActiveLength   float64 `json:"activeLength"`
	InactiveLength float64 `json:"inactiveLength"`
	InactiveOffset float64 `json:"inactiveOffset"`
}

type Legend struct {
	Active   string `json:"active"`
	Inactive string `json:"inactive"`
}

type EntryView struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	TypeLabel string  `json:"typeLabel"`
	Amount    string  `json:"amount"`
	RawAmount float64 `json:"rawAmount"`
	Date      string  `json:"date"`
	IsActive  bool    `json:"isActive"`
	Note      string  `json:"note,omitempty"`
}

// Project builds the view of one goal.
func Project(goal model.Goal, p progress.Progress, money Money) GoalView {
	name := goal.Name
	if name == "" {
		name = "Unnamed goal"
	}

	key := sorting.ParseKey(goal.EntrySort)
	sorted := sorting.Entries(goal.Entries, key)
	entries := make([]EntryView, len(sorted))
	for i, e := range sorted {
		entries[i] = projectEntry(e, money)
	}

	return GoalView{
		ID:        goal.ID,
		Name:      name,
		Meta:      fmt.Sprintf("Target %s by %s", money.Format(goal.Amount.Float()), FormatDate(goal.EndDate)),
		Target:    money.Format(p.Target),
		EndDate:   goal.EndDate,
		EntrySort: string(key),
		Progress:  p,
		Gauge:     NewGauge(p),
		Legend: Legend{
			Active:   fmt.Sprintf("%.1f%%", p.ActivePercent),
			Inactive: fmt.Sprintf("%.1f%%", p.InactivePercent),
		},
		Entries: entries,
	}
}

// ProjectAll computes progress and projects every goal, keeping order.
func ProjectAll(goals []model.Goal, money Money) []GoalView {
	out := make([]GoalView, len(goals))
	for i, g := range goals {
		out[i] = Project(g, progress.Compute(g, money), money)
	}
	return out
}

// NewGauge converts percentages into arc lengths. Negative percentages
// draw nothing, and the inactive arc is cut to the room the active arc
// leaves, so both arcs together never pass the full circle.
func NewGauge(p progress.Progress) Gauge {
	activePercent := math.Min(100, math.Max(0, p.ActivePercent))
	inactivePercent := math.Min(100-activePercent, math.Max(0, p.InactivePercent))
	active := activePercent / 100 * Circumference
	inactive := inactivePercent / 100 * Circumference
	return Gauge{
		Circumference:  Circumference,
		ActiveLength:   active,
		InactiveLength: inactive,
		InactiveOffset: -active,
	}
}

func projectEntry(e model.Entry, money Money) EntryView {
	sign, label := "-", "Debit"
	if e.Type == model.EntryTypeCredit {
		sign, label = "+", "Credit"
	}
	return EntryView{
		ID:        e.ID,
		Type:      e.Type,
		TypeLabel: label,
		Amount:    sign + money.Format(e.Amount.Float()),
		RawAmount: e.Amount.Float(),
		Date:      FormatDate(e.Date),
		IsActive:  e.IsActive,
		Note:      e.Note,
	}
}

// FormatDate renders a YYYY-MM-DD date as "Jan 2, 2006". Unparseable
// input is returned unchanged.
func FormatDate(date string) string {
	if date == "" {
		return ""
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}
