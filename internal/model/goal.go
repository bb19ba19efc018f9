package model

// Goal is a named savings target. Entries are kept in storage order,
// newest created first.
type Goal struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Amount    Amount  `json:"amount"`
	EndDate   string  `json:"endDate"`
	EntrySort string  `json:"entrySort,omitempty"`
	Entries   []Entry `json:"entries"`
}

// Entry returns the index of the entry with the given id, or -1.
func (g *Goal) Entry(entryID string) int {
	for i := range g.Entries {
		if g.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	c := g
	c.Entries = make([]Entry, len(g.Entries))
	copy(c.Entries, g.Entries)
	return c
}

// CloneGoals deep-copies a goal list. A nil list becomes an empty one.
func CloneGoals(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i := range goals {
		out[i] = goals[i].Clone()
	}
	return out
}
