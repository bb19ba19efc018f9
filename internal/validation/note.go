package validation

import "strings"

const MaxNoteLength = 500

// NormalizeNote trims the note and cuts it to MaxNoteLength runes.
func NormalizeNote(note string) string {
	note = strings.TrimSpace(note)
	r := []rune(note)
	if len(r) > MaxNoteLength {
		note = strings.TrimSpace(string(r[:MaxNoteLength]))
	}
	return note
}
