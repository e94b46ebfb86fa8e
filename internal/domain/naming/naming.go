// Package naming canonicalizes free-text shot names.
package naming

import (
	"regexp"
	"strings"
)

// shotPattern finds SQ/SC/SH number groups separated by any run of
// non-alphanumeric characters (including none). Input is uppercased first.
var shotPattern = regexp.MustCompile(`SQ([0-9]+)[^A-Z0-9]*SC([0-9]+)[^A-Z0-9]*SH([0-9]+)`)

// looseSeparators are collapsed to "_" when the name is not a shot code.
var looseSeparators = regexp.MustCompile(`[\s-]+`)

// minDigits is the zero-padded width of each shot code group.
const minDigits = 2

// Normalize returns the canonical form of a shot name.
//
// Names carrying a sequence/scene/shot code are rewritten as
// SQ{seq}_SC{scene}_SH{shot} with each number left-padded to two digits.
// Anything else is uppercased with space and dash runs collapsed to "_".
// Normalize is idempotent.
func Normalize(raw string) string {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return ""
	}

	if m := shotPattern.FindStringSubmatch(name); m != nil {
		return "SQ" + pad(m[1]) + "_SC" + pad(m[2]) + "_SH" + pad(m[3])
	}

	return looseSeparators.ReplaceAllString(name, "_")
}

// IsShotCode reports whether raw carries a recognizable SQ/SC/SH code.
func IsShotCode(raw string) bool {
	return shotPattern.MatchString(strings.ToUpper(raw))
}

// pad left-pads digits with zeros; longer values are kept as-is.
func pad(digits string) string {
	if len(digits) >= minDigits {
		return digits
	}
	return strings.Repeat("0", minDigits-len(digits)) + digits
}
