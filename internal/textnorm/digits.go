package textnorm

import (
	"strings"
	"unicode"
)

const nbsp = '\u00a0'

// Zero code points of the decimal digit blocks seen in proposal text.
var digitZeros = []rune{
	'๐', // Thai
	'٠', // Arabic-Indic
	'۰', // Extended Arabic-Indic
	'०', // Devanagari
	'০', // Bengali
	'໐', // Lao
	'၀', // Myanmar
	'០', // Khmer
	'０', // fullwidth
}

// FoldDigits rewrites decimal digits from the known scripts as ASCII, so "๑,๕๐๐"
// becomes "1,500", and turns non-breaking spaces into plain ones. Unknown digits are
// left as is.
func FoldDigits(s string) string {
	if !strings.ContainsFunc(s, needsFold) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r < 0x80 {
			return r
		}
		if r == nbsp {
			return ' '
		}
		for _, z := range digitZeros {
			if r >= z && r <= z+9 {
				return '0' + (r - z)
			}
		}
		return r
	}, s)
}

func needsFold(r rune) bool {
	return r == nbsp || (r >= 0x80 && unicode.IsDigit(r))
}
