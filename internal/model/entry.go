package model

const (
	EntryTypeCredit = "credit"
	EntryTypeDebit  = "debit"
)

// Entry is a single credit or debit against a goal. Amount is never
// negative; the sign comes from Type.
type Entry struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Amount    Amount `json:"amount"`
	Date      string `json:"date"`
	CreatedAt int64  `json:"createdAt,omitempty"` // unix ms, 0 for legacy entries
	IsActive  bool   `json:"is_active"`
	Note      string `json:"note"`
}

func ValidEntryType(t string) bool {
	return t == EntryTypeCredit || t == EntryTypeDebit
}

// Signed returns the amount with the sign implied by the entry type.
func (e Entry) Signed() float64 {
	v := e.Amount.Float()
	if e.Type == EntryTypeCredit {
		return v
	}
	return -v
}
