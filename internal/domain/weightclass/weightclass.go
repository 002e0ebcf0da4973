// Package weightclass maps raw weight-class labels to canonical rating buckets.
package weightclass

import "strconv"

// Normalize returns the integer value of the first maximal run of ASCII
// digits in label. Labels without digits, or whose run overflows int, are
// excluded and report false.
func Normalize(label string) (int, bool) {
	start := -1
	for i := 0; i < len(label); i++ {
		if isDigit(label[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(label) && isDigit(label[end]) {
		end++
	}
	n, err := strconv.Atoi(label[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
