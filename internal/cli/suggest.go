// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Command suggestion for typo correction.
package cli

import (
	"strings"
)

// validCommands lists every command name and alias Parse accepts.
var validCommands = []string{
	"agents", "ls",
	"history", "log",
	"chat", "tui",
	"replay",
	"captures", "capture",
	"config",
	"version",
	"help",
}

// SuggestCommand returns the closest command to input, or "" when nothing is
// within a small edit distance.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)
	if len(input) < 2 {
		return ""
	}

	// Short names tolerate one edit, longer ones two
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}

	best, bestDistance := "", maxDistance+1
	for _, cmd := range validCommands {
		d := levenshteinDistance(input, cmd)
		if d == 0 {
			return ""
		}
		if d < bestDistance {
			best, bestDistance = cmd, d
		}
	}
	return best
}

// levenshteinDistance is the number of single-rune insertions, deletions or
// substitutions turning a into b.
func levenshteinDistance(a, b string) int {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
