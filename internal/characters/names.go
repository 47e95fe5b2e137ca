package characters

import (
	"strings"

	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// PrepareCharacterNames canonicalizes a raw display-name input, per spec
// §4.4. It returns the trimmed/collapsed display form and its ASCII-lower
// canonical form, or a Validation error naming the first rule broken.
func PrepareCharacterNames(raw string, minLen, maxLen int) (display, canonical string, err *ikerr.Error) {
	if verr := validate.Str("display_name", raw, minLen, maxLen); verr != nil {
		return "", "", verr
	}

	display = collapseInteriorSpaces(strings.TrimSpace(raw))
	if display == "" {
		return "", "", ikerr.Validation(ikerr.ReasonNameWithoutLetters, "display name has no letters")
	}

	for _, r := range display {
		if !isAllowedNameRune(r) {
			return "", "", ikerr.Validation(ikerr.ReasonNameInvalidCharacters, "display name contains an invalid character")
		}
	}

	if hasConsecutiveSeparators(display) {
		return "", "", ikerr.Validation(ikerr.ReasonNameConsecutiveSeparators, "display name has two adjacent separators")
	}

	if isNameSeparator(rune(display[0])) || isNameSeparator(rune(display[len(display)-1])) {
		return "", "", ikerr.Validation(ikerr.ReasonNameInvalidCharacters, "display name starts or ends with a separator")
	}

	canonical = strings.ToLower(display) // display is ASCII-only by construction above

	if verr := validate.Str("canonical_name", canonical, minLen, maxLen); verr != nil {
		return "", "", verr
	}
	if !containsLetter(canonical) {
		return "", "", ikerr.Validation(ikerr.ReasonNameWithoutLetters, "canonical name has no letters")
	}

	return display, canonical, nil
}

func isNameSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == '\''
}

func isAllowedNameRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || isNameSeparator(r)
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func hasConsecutiveSeparators(s string) bool {
	prevSep := false
	for _, r := range s {
		sep := isNameSeparator(r)
		if sep && prevSep {
			return true
		}
		prevSep = sep
	}
	return false
}

// collapseInteriorSpaces collapses runs of literal ' ' into a single space,
// leaving any other character (including other whitespace, later rejected
// by isAllowedNameRune) untouched.
func collapseInteriorSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
