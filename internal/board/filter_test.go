package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterVisible(t *testing.T) {
	snap := Snapshot{Cards: []Card{
		{ID: "1", Title: "Fix Login bug", Priority: PriorityHigh},
		{ID: "2", Title: "Docs", Description: "explain LOGIN flow", Priority: PriorityLow},
		{ID: "3", Title: "Release", Priority: PriorityMedium},
	}}
	tests := []struct {
		name   string
		filter Filter
		want   map[string]bool
	}{
		{"empty filter shows all", Filter{}, map[string]bool{"1": true, "2": true, "3": true}},
		{"query matches title and description", Filter{Query: "login"}, map[string]bool{"1": true, "2": true}},
		{"priority all", Filter{Priority: PriorityAll}, map[string]bool{"1": true, "2": true, "3": true}},
		{"priority exact", Filter{Priority: "low"}, map[string]bool{"2": true}},
		{"query and priority combine", Filter{Query: "login", Priority: "high"}, map[string]bool{"1": true}},
		{"no match", Filter{Query: "zzz"}, map[string]bool{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.filter.Visible(snap)); diff != "" {
				t.Fatalf("visible mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
