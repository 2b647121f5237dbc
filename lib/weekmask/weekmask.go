// Package weekmask converts between the human week-range notation
// accepted by callers ("3-5,8") and the fixed-width positional
// bitmask the portal's classroom endpoints consume.
package weekmask

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaskLength is the width of the portal's week field. Position 0 is
// reserved, so the highest representable week is MaskLength-1.
const MaskLength = 34

const MaxWeek = MaskLength - 1

type FormatError struct {
	Token  string
	Reason string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("invalid week token %q: %s", e.Token, e.Reason)
}

// Parse expands a comma-separated list of week numbers and inclusive
// ranges into a deduplicated ascending slice. A blank spec yields an
// empty slice, not an error.
func Parse(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	seen := map[int]bool{}
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)

		start, end, found := strings.Cut(token, "-")
		if !found {
			week, err := strconv.Atoi(token)
			if err != nil {
				return nil, FormatError{Token: token, Reason: "not an integer"}
			}
			seen[week] = true
			continue
		}

		lo, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return nil, FormatError{Token: token, Reason: "range start is not an integer"}
		}
		hi, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return nil, FormatError{Token: token, Reason: "range end is not an integer"}
		}
		if lo > hi {
			return nil, FormatError{Token: token, Reason: "range is inverted"}
		}
		for w := lo; w <= hi; w++ {
			seen[w] = true
		}
	}

	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}

// Encode produces the portal's positional mask. Weeks outside
// [1, MaxWeek] are dropped silently, the field is fixed-width and the
// server ignores anything it cannot represent anyway.
func Encode(weeks []int) string {
	mask := make([]byte, MaskLength)
	for i := range mask {
		mask[i] = '0'
	}
	for _, w := range weeks {
		if w >= 1 && w <= MaxWeek {
			mask[w] = '1'
		}
	}
	return string(mask)
}

// Decode recovers the ascending week set from a positional mask.
func Decode(mask string) ([]int, error) {
	if len(mask) != MaskLength {
		return nil, FormatError{Token: mask, Reason: fmt.Sprintf("mask must be %d characters", MaskLength)}
	}
	var weeks []int
	for i, c := range mask {
		switch c {
		case '1':
			weeks = append(weeks, i)
		case '0':
		default:
			return nil, FormatError{Token: mask, Reason: "mask must be binary digits"}
		}
	}
	return weeks, nil
}

// Spec renders a week slice back into the comma-separated form the
// occupancy endpoints take alongside the mask.
func Spec(weeks []int) string {
	parts := make([]string, len(weeks))
	for i, w := range weeks {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ",")
}
