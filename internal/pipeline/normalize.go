package pipeline

import (
	"regexp"
	"strings"
)

// Rule is one textual rewrite applied by Normalize.
//
// Rules are heuristics over text, not a JSON grammar: a rule may touch
// characters inside string literals that happen to look like structure.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// Replace is the regexp template used when Expand is nil.
	Replace string
	// Expand rewrites the match at loc (submatch indices into s) and reports the
	// end offset in s of the region the replacement covers, which may extend past
	// the match itself.
	Expand func(s string, loc []int) (replacement string, end int)
}

// Apply runs the rule over s once.
func (r Rule) Apply(s string) string {
	if r.Expand == nil {
		return r.Pattern.ReplaceAllString(s, r.Replace)
	}

	locs := r.Pattern.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16*len(locs))
	pos := 0
	for i, loc := range locs {
		if loc[0] < pos {
			continue
		}
		replacement, end := r.Expand(s, loc)
		if i+1 < len(locs) && end > locs[i+1][0] {
			end = locs[i+1][0]
		}
		if end < loc[1] {
			end = loc[1]
		}
		b.WriteString(s[pos:loc[0]])
		b.WriteString(replacement)
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}

// SyntaxRules is the ordered rewrite chain. Later rules assume the earlier ones
// already ran; append new rules at the end.
var SyntaxRules = []Rule{
	{
		Name:    "trailing-comma",
		Pattern: regexp.MustCompile(`(?:,\s*)+([}\]])`),
		Replace: "$1",
	},
	{
		Name:    "unit-notes-comma",
		Pattern: regexp.MustCompile(`("unit"\s*:\s*"[^"]*")\s*("notes"\s*:)`),
		Replace: "$1, $2",
	},
	{
		Name:    "dangling-ingredient",
		Pattern: regexp.MustCompile(`(^|[\[,]\s*)"([^"]+)"\s*,\s*"quantity"\s*:`),
		Expand:  expandDanglingIngredient,
	},
}

// Normalize applies SyntaxRules in order. It is idempotent.
func Normalize(text string) string {
	for _, rule := range SyntaxRules {
		text = rule.Apply(text)
	}
	return text
}

// ingredientKeys are the keys that may follow "quantity" inside one ingredient.
var ingredientKeys = map[string]bool{
	"quantity": true,
	"unit":     true,
	"notes":    true,
}

var keyPattern = regexp.MustCompile(`^"([^"]+)"\s*:`)

// expandDanglingIngredient turns `"ginger", "quantity": 2, "unit": "tsp"` into
// `{"name": "ginger", "quantity": 2, "unit": "tsp"}`. The closing brace goes
// after the last ingredient entry unless one is already there.
func expandDanglingIngredient(s string, loc []int) (string, int) {
	prefix := s[loc[2]:loc[3]]
	name := s[loc[4]:loc[5]]
	head := prefix + `{"name": "` + name + `", "quantity":`

	pos := loc[1]
	for {
		pos = skipValue(s, skipSpace(s, pos))
		q := skipSpace(s, pos)
		if q < len(s) && s[q] == '}' {
			return head + s[loc[1]:pos], pos
		}

		next := q
		if next < len(s) && s[next] == ',' {
			next = skipSpace(s, next+1)
		}
		m := keyPattern.FindStringSubmatch(s[next:])
		if m == nil || !ingredientKeys[m[1]] {
			return head + s[loc[1]:pos] + "}", pos
		}
		pos = next + len(m[0])
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// skipValue advances past one scalar value: a string literal or a bare token
// such as 2, 1/2 or null.
func skipValue(s string, i int) int {
	if i >= len(s) {
		return i
	}
	if s[i] == '"' {
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				j++
			case '"':
				return j + 1
			}
		}
		return len(s)
	}
	j := i
	for j < len(s) && !strings.ContainsRune(",}]\"\n", rune(s[j])) {
		j++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\r') {
		j--
	}
	return j
}
