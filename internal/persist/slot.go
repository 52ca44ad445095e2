package persist

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const maxSlotLen = 64

var fold = cases.Fold()

// NormalizeSlot turns a user-supplied slot name into the key it is stored
// under: NFKC, case folded, runs of anything but letters, digits, '-' and
// '_' collapsed to one '-', trimmed. "Slot One" and "ｓｌｏｔ　ｏｎｅ" name the
// same slot.
func NormalizeSlot(name string) (string, error) {
	s := fold.String(norm.NFKC.String(name))

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			dash = false
		case !dash:
			b.WriteRune('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, name)
	}
	if r := []rune(out); len(r) > maxSlotLen {
		out = strings.TrimRight(string(r[:maxSlotLen]), "-")
	}
	return out, nil
}
