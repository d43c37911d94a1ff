package judge

import "strings"

// Normalize trims outer whitespace and lowercases the output
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OutputsMatch compares actual and expected output after normalization
func OutputsMatch(actual, expected string) bool {
	return Normalize(actual) == Normalize(expected)
}
