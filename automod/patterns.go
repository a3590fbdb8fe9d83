package automod

import (
	"fmt"
	"regexp"
	"strconv"
)

// name of the set holding banned repost source ids
const BannedRepostSet = "banned-repost-groups"

// Compiles banned text patterns as case-insensitive regular expressions (RE2 syntax). Matching uses search semantics: a match anywhere in the text counts.
//
// Empty patterns are rejected, because they would match every message.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		if p == "" {
			return nil, fmt.Errorf("banned pattern %d is empty", i)
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling banned pattern %d (%q): %w", i, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Converts a configured group id into the form which appears as a repost source: groups are negative on the platform. Already-negative ids are kept as-is.
func NormalizeGroupID(id int64) string {
	if id > 0 {
		id = -id
	}
	return strconv.FormatInt(id, 10)
}
