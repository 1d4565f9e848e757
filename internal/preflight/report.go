package preflight

import (
	"encoding/json"
	"sort"
)

// Report is the ordered, category-grouped result of a run.
type Report struct {
	issues []ValidationIssue
}

// Aggregate concatenates issue lists and groups them by category display order. Order
// within a category follows input order; nothing is deduplicated.
func Aggregate(lists ...[]ValidationIssue) Report {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	all := make([]ValidationIssue, 0, n)
	for _, l := range lists {
		for _, issue := range l {
			all = append(all, issue.clone())
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Category.Rank() < all[j].Category.Rank()
	})
	return Report{issues: all}
}

// Issues returns a copy of the issues in report order.
func (r Report) Issues() []ValidationIssue {
	out := make([]ValidationIssue, len(r.issues))
	for i, issue := range r.issues {
		out[i] = issue.clone()
	}
	return out
}

// Len is the number of issues.
func (r Report) Len() int {
	return len(r.issues)
}

// CategoryGroup is the issues of one category.
type CategoryGroup struct {
	Category Category          `json:"category"`
	Issues   []ValidationIssue `json:"issues"`
}

// ByCategory groups the issues in display order, skipping empty categories.
func (r Report) ByCategory() []CategoryGroup {
	var groups []CategoryGroup
	for _, issue := range r.issues {
		if len(groups) == 0 || groups[len(groups)-1].Category != issue.Category {
			groups = append(groups, CategoryGroup{Category: issue.Category})
		}
		g := &groups[len(groups)-1]
		g.Issues = append(g.Issues, issue.clone())
	}
	return groups
}

// Filter returns a report holding only issues at or above min.
func (r Report) Filter(min Severity) Report {
	kept := make([]ValidationIssue, 0, len(r.issues))
	for _, issue := range r.issues {
		if issue.Severity >= min {
			kept = append(kept, issue.clone())
		}
	}
	return Report{issues: kept}
}

// Count returns the number of issues with exactly severity s.
func (r Report) Count(s Severity) int {
	n := 0
	for _, issue := range r.issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any issue is an error.
func (r Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// MaxSeverity is the highest severity present, or SeverityInfo for an empty report.
func (r Report) MaxSeverity() Severity {
	max := SeverityInfo
	for _, issue := range r.issues {
		if issue.Severity > max {
			max = issue.Severity
		}
	}
	return max
}

// Summary counts issues by severity.
type Summary struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Summary counts the report's issues by severity.
func (r Report) Summary() Summary {
	return Summary{
		Info:    r.Count(SeverityInfo),
		Warning: r.Count(SeverityWarning),
		Error:   r.Count(SeverityError),
	}
}

type reportJSON struct {
	Summary Summary           `json:"summary"`
	Issues  []ValidationIssue `json:"issues"`
}

// MarshalJSON encodes the report as {"summary":..., "issues":[...]}.
func (r Report) MarshalJSON() ([]byte, error) {
	issues := r.issues
	if issues == nil {
		issues = []ValidationIssue{}
	}
	return json.Marshal(reportJSON{Summary: r.Summary(), Issues: issues})
}

// UnmarshalJSON decodes a report produced by MarshalJSON. Issues are regrouped by category
// so a decoded report keeps the display order invariant.
func (r *Report) UnmarshalJSON(b []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Aggregate(raw.Issues)
	return nil
}
