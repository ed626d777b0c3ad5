// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean". Three covers a transposition plus a dropped or extra
// character.
const maxSuggestDistance = 3

// closest returns the candidate nearest to target, or "" when none is
// within maxSuggestDistance. Ties go to the earliest candidate.
func closest(target string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if distance := levenshtein(target, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// suggestCommand returns the subcommand the user most likely meant by
// unknown. A unique prefix ("escrow" for "escrow-transfer") wins over
// edit distance, since prefixes are usually far from the full name.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, 0, len(commands))
	var prefixed []string
	for _, command := range commands {
		names = append(names, command.Name)
		if unknown != "" && strings.HasPrefix(command.Name, unknown) {
			prefixed = append(prefixed, command.Name)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0]
	}
	return closest(unknown, names)
}

// suggestFlag finds the first flag in args that flagSet does not define
// and returns the nearest defined long flag as "--name", or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var defined []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined = append(defined, f.Name)
	})

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil {
			continue
		}
		// Single-dash clusters like -ck are shorthands, checked one by one.
		if !strings.HasPrefix(arg, "--") && knownShorthands(name, flagSet) {
			continue
		}
		if suggestion := closest(name, defined); suggestion != "" {
			return "--" + suggestion
		}
		// Only the first unknown flag gets a suggestion.
		return ""
	}
	return ""
}

func knownShorthands(cluster string, flagSet *pflag.FlagSet) bool {
	if cluster == "" {
		return false
	}
	for _, shorthand := range cluster {
		if flagSet.ShorthandLookup(string(shorthand)) == nil {
			return false
		}
	}
	return true
}

// levenshtein returns the edit distance between a and b, keeping two
// rows of the matrix sized by the shorter string.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	previous := make([]int, len(a)+1)
	current := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			substitution := previous[i-1]
			if a[i-1] != b[j-1] {
				substitution++
			}
			current[i] = min(previous[i]+1, current[i-1]+1, substitution)
		}
		previous, current = current, previous
	}
	return previous[len(a)]
}
