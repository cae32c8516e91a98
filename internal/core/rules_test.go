package core

import "testing"

const (
	dining    int64 = 8
	transport int64 = 5
	groceries int64 = 4
)

func TestMatchRulePriority(t *testing.T) {
	rules := []Rule{
		{ID: 2, Priority: 10, ContainsText: "uber", CategoryID: transport, IsActive: true},
		{ID: 1, Priority: 1, ContainsText: "uber eats", CategoryID: dining, IsActive: true},
	}
	got, ok := MatchRule("Uber Eats Delivery", rules)
	if !ok || got.CategoryID != dining {
		t.Fatalf("expected dining match, got %+v (ok=%v)", got, ok)
	}
	got, ok = MatchRule("UBER TRIP 42", rules)
	if !ok || got.CategoryID != transport {
		t.Fatalf("expected transport match, got %+v (ok=%v)", got, ok)
	}
}

func TestMatchRuleSkipsInactive(t *testing.T) {
	rules := []Rule{
		{ID: 1, Priority: 1, ContainsText: "walmart", CategoryID: groceries, IsActive: false},
	}
	if _, ok := MatchRule("WALMART #123", rules); ok {
		t.Fatalf("inactive rule must not match")
	}
}

func TestMatchRuleIgnoresCase(t *testing.T) {
	rules := []Rule{{ID: 1, Priority: 1, ContainsText: "WhOlE FoOdS", CategoryID: groceries, IsActive: true}}
	for _, desc := range []string{"whole foods market", "WHOLE FOODS MARKET", "Whole Foods"} {
		if _, ok := MatchRule(desc, rules); !ok {
			t.Fatalf("%q expected match", desc)
		}
	}
}

func TestMatchRuleNoMatch(t *testing.T) {
	rules := []Rule{
		{ID: 1, Priority: 1, ContainsText: "netflix", CategoryID: 1, IsActive: true},
		{ID: 2, Priority: 2, ContainsText: "   ", CategoryID: 2, IsActive: true},
	}
	cases := []struct {
		desc  string
		rules []Rule
	}{
		{"NETFLIX.COM", nil},
		{"Corner Bakery", rules},
		{"", rules},
		{"   ", rules},
	}
	for _, tc := range cases {
		if got, ok := MatchRule(tc.desc, tc.rules); ok {
			t.Fatalf("%q expected no match, got %+v", tc.desc, got)
		}
	}
}

func TestOrderRulesStable(t *testing.T) {
	in := []Rule{
		{ID: 1, Priority: 5},
		{ID: 2, Priority: 1},
		{ID: 3, Priority: 5},
		{ID: 4, Priority: 1},
	}
	got := OrderRules(in)
	want := []int64{2, 4, 1, 3}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d expected id %d, got %d", i, id, got[i].ID)
		}
	}
	if in[0].ID != 1 {
		t.Fatalf("OrderRules must not reorder its input")
	}
}

func TestMatchRuleTieBreak(t *testing.T) {
	rules := []Rule{
		{ID: 3, Priority: 1, ContainsText: "shell", CategoryID: transport, IsActive: true},
		{ID: 7, Priority: 1, ContainsText: "shell", CategoryID: groceries, IsActive: true},
	}
	got, ok := MatchRule("SHELL OIL 5521", rules)
	if !ok || got.ID != 3 {
		t.Fatalf("expected first rule in input order, got %+v", got)
	}
}

func TestIsDefaultCategoryName(t *testing.T) {
	for name, want := range map[string]bool{
		DefaultCategoryName: true,
		OtherCategoryName:   true,
		"Groceries":         false,
		"uncategorized":     false,
	} {
		if got := IsDefaultCategoryName(name); got != want {
			t.Errorf("IsDefaultCategoryName(%q) = %v, want %v", name, got, want)
		}
	}
}
