package utils

import "strings"

// TrimSpaceSlice trims whitespace from all strings in a slice and filters out empty strings
func TrimSpaceSlice(items []string) []string {
	var result []string
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ParseCommaDelimited parses a comma-delimited string into a slice of trimmed, non-empty strings
func ParseCommaDelimited(input string) []string {
	if input == "" {
		return nil
	}

	parts := strings.Split(input, ",")
	return TrimSpaceSlice(parts)
}

// SplitRecord splits a "key,...,value" line into its first and last fields.
// Fields in between are ignored. ok is false when the line has no comma.
func SplitRecord(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	first := strings.Index(line, ",")
	if first < 0 {
		return "", "", false
	}
	last := strings.LastIndex(line, ",")
	return line[:first], line[last+1:], true
}
