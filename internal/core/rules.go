package core

import (
	"sort"
	"strings"
)

// OrderRules returns a copy of rules sorted by ascending priority.
// The sort is stable: rules sharing a priority keep their input order, so
// callers that load rules by (priority, id) get id as the tie-break.
func OrderRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// MatchRule returns the first active rule whose text is contained in the
// description, comparing both sides lower-cased. Blank descriptions never
// match.
func MatchRule(description string, rules []Rule) (Rule, bool) {
	if strings.TrimSpace(description) == "" {
		return Rule{}, false
	}
	desc := strings.ToLower(description)
	for _, rule := range OrderRules(rules) {
		if !rule.IsActive || strings.TrimSpace(rule.ContainsText) == "" {
			continue
		}
		if strings.Contains(desc, strings.ToLower(rule.ContainsText)) {
			return rule, true
		}
	}
	return Rule{}, false
}

// IsDefaultCategoryName reports whether name is one of the catch-all
// categories that bulk rule application re-examines.
func IsDefaultCategoryName(name string) bool {
	return name == DefaultCategoryName || name == OtherCategoryName
}
