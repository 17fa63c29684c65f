package devfile

import (
	"regexp"
	"strings"
)

var (
	imagePattern     = regexp.MustCompile(`(?m)\bimage: (.*)$`)
	componentPattern = regexp.MustCompile(`(?m)\bid: (.*)$`)
	referencePattern = regexp.MustCompile(`(?m)\breference: (.*)$`)
)

// blockIndicators are YAML scalar headers whose value starts on the next line
var blockIndicators = map[string]bool{
	">": true, ">-": true, ">+": true,
	"|": true, "|-": true, "|+": true,
}

// scan returns the first capture group of every non-overlapping match of
// pattern in text, in document order. Values that are only a YAML block
// indicator are replaced by the first non-blank line that follows.
func scan(pattern *regexp.Regexp, text string) []string {
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		value := strings.TrimSpace(text[m[2]:m[3]])
		if blockIndicators[value] {
			value = nextNonBlankLine(text[m[1]:])
		}
		values = append(values, value)
	}
	return values
}

func nextNonBlankLine(rest string) string {
	for _, line := range strings.Split(rest, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// cleanName strips quoting artifacts and surrounding whitespace
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, `"`, "")
	return strings.TrimSpace(name)
}
