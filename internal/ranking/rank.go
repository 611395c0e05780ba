package ranking

import (
	"cmp"
	"slices"
	"strings"

	"bridgeofhope/internal/model"
)

// Rank orders donors by items donated, breaking ties by display name
// (case-insensitive, then exact) and finally donor id, so equal inputs always
// yield the same ranks. Ranks are 1..N with no gaps or repeats.
func Rank(summaries []model.DonorSummary) []model.LeaderboardEntry {
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, compareSummaries)

	entries := make([]model.LeaderboardEntry, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		entries[i] = model.LeaderboardEntry{
			Rank:    rank,
			Summary: s,
			Tier:    TierFor(s.ItemsDonated),
			Badge:   BadgeFor(rank),
		}
	}
	return entries
}

func compareSummaries(a, b model.DonorSummary) int {
	if c := cmp.Compare(b.ItemsDonated, a.ItemsDonated); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)); c != 0 {
		return c
	}
	if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
		return c
	}
	return strings.Compare(a.DonorID, b.DonorID)
}

// Search keeps entries whose display name contains term, ignoring case.
// Ranks are left as computed over the full set.
func Search(entries []model.LeaderboardEntry, term string) []model.LeaderboardEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}
	out := make([]model.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Summary.DisplayName), term) {
			out = append(out, e)
		}
	}
	return out
}

// SortByName reorders entries alphabetically for display without touching ranks.
func SortByName(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b model.LeaderboardEntry) int {
		if c := strings.Compare(strings.ToLower(a.Summary.DisplayName), strings.ToLower(b.Summary.DisplayName)); c != 0 {
			return c
		}
		return cmp.Compare(a.Rank, b.Rank)
	})
	return out
}
