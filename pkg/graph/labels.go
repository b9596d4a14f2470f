package graph

import "strings"

// UnknownFunction is the label LLVM gives call graph nodes without a function
const UnknownFunction = "(unknown)"

// unwrapLabel strips the quoting and record braces around a DOT label,
// e.g. "{file.c:10;main}" becomes file.c:10;main.
func unwrapLabel(label string) string {
	result := strings.TrimSpace(label)
	result = strings.TrimPrefix(result, `"`)
	result = strings.TrimPrefix(result, "{")
	result = strings.TrimSuffix(result, `"`)
	result = strings.TrimSuffix(result, "}")
	return result
}

// FunctionNameFromLabel returns the function name encoded in a call graph label
func FunctionNameFromLabel(label string) string {
	return unwrapLabel(label)
}

// BlockNameFromLabel returns the basic block identifier encoded in a CFG label.
// CFG labels carry a uniquifying suffix after the last colon which is dropped,
// so "{a.c:12:3}" and "{a.c:12:}" both map to a.c:12.
func BlockNameFromLabel(label string) string {
	result := unwrapLabel(label)
	idx := strings.LastIndex(result, ":")
	if idx < 0 {
		return ""
	}
	return result[:idx]
}

// SimpleFunctionName returns the symbol part of a function name of the
// form file:line;symbol
func SimpleFunctionName(name string) string {
	if idx := strings.LastIndex(name, ";"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// IsEntryName reports whether the function name denotes one of the entry points
func IsEntryName(name string, entryPoints []string) bool {
	simple := SimpleFunctionName(name)
	for _, entry := range entryPoints {
		if simple == entry {
			return true
		}
	}
	return false
}
