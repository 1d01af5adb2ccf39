package jobs

import (
	"motorhub/pkg/model"
	"motorhub/pkg/sanitizer"
)

const StatusAll = "all"

// Criteria narrows a list view. Empty fields match everything.
type Criteria struct {
	Status string
	Search string
}

// Filter keeps the records matching c, preserving order.
func Filter(records []*model.Job, c Criteria) []*model.Job {
	out := make([]*model.Job, 0, len(records))
	for _, r := range records {
		if MatchesStatus(r.Status, c.Status) && matchesSearch(r, c.Search) {
			out = append(out, r)
		}
	}
	return out
}

// MatchesStatus compares after normalizing both sides. "all" and "" match
// any status.
func MatchesStatus(status model.Status, want string) bool {
	if want == "" || sanitizer.NormalizeSearch(want) == StatusAll {
		return true
	}
	return model.NormalizeStatus(string(status)) == model.NormalizeStatus(want)
}

func matchesSearch(r *model.Job, term string) bool {
	if sanitizer.NormalizeSearch(term) == "" {
		return true
	}
	for _, field := range []string{r.Vehicle, r.ServiceType, r.Message, r.CustomerName} {
		if sanitizer.ContainsFold(field, term) {
			return true
		}
	}
	return false
}

// Open keeps marketplace jobs nobody holds yet.
func Open(records []*model.Job) []*model.Job {
	out := make([]*model.Job, 0, len(records))
	for _, r := range records {
		if r.ServiceCenterID == "" && !r.Assigned() && r.Status == model.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

// Where keeps the records for which keep returns true.
func Where(records []*model.Job, keep func(*model.Job) bool) []*model.Job {
	out := make([]*model.Job, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
