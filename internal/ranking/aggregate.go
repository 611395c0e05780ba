// Package ranking turns donation records into donor summaries and a
// deterministic, tiered leaderboard. Everything here is pure.
package ranking

import (
	"bridgeofhope/internal/model"
)

const (
	impactPerItem     = 10
	impactPerDonation = 5
)

// ImpactScore grows with both items and donation events and is zero for a
// donor with no records.
func ImpactScore(items, donations int) int {
	if items < 0 {
		items = 0
	}
	if donations < 0 {
		donations = 0
	}
	return items*impactPerItem + donations*impactPerDonation
}

// Summarize aggregates one donor's records. The caller is responsible for
// passing only that donor's records. Non-positive quantities count as a
// donation of zero items. Undated records leave LastDonation zero, which
// renders as "N/A".
func Summarize(donorID, displayName string, records []model.PickupRequest) model.DonorSummary {
	s := model.DonorSummary{
		DonorID:     donorID,
		DisplayName: displayName,
	}
	for _, r := range records {
		s.TotalDonations++
		if r.Quantity > 0 {
			s.ItemsDonated += r.Quantity
		}
		if r.SubmittedAt.After(s.LastDonation) {
			s.LastDonation = r.SubmittedAt
		}
	}
	s.ImpactScore = ImpactScore(s.ItemsDonated, s.TotalDonations)
	return s
}

// SummarizeAll groups records by donor and summarizes each group. Donors
// missing from names fall back to their id as display name. Output order
// follows first appearance in records.
func SummarizeAll(records []model.PickupRequest, names map[string]string) []model.DonorSummary {
	var order []string
	groups := make(map[string][]model.PickupRequest)
	for _, r := range records {
		if _, ok := groups[r.DonorID]; !ok {
			order = append(order, r.DonorID)
		}
		groups[r.DonorID] = append(groups[r.DonorID], r)
	}

	out := make([]model.DonorSummary, 0, len(order))
	for _, id := range order {
		name, ok := names[id]
		if !ok || name == "" {
			name = id
		}
		out = append(out, Summarize(id, name, groups[id]))
	}
	return out
}
