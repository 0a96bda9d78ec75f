package problemgen

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAnswer converts a learner's typed answer into an integer.
//
// Normalization rules:
// - Whitespace is trimmed
// - A leading '+' is accepted
// - Leading zeros are ignored (e.g., "007" is 7)
func ParseAnswer(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("empty answer")
	}
	n, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	return int(n), nil
}

// CheckAnswer reports whether the typed input is the correct answer to q.
// Unparseable input is never correct.
func CheckAnswer(input string, q Question) bool {
	n, err := ParseAnswer(input)
	if err != nil {
		return false
	}
	want, err := q.Expected()
	if err != nil {
		return false
	}
	return n == want
}
