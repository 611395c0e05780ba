package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bridgeofhope/internal/model"
	"bridgeofhope/internal/ranking"
	"bridgeofhope/internal/remote"
)

var ErrInvalidQuery = errors.New("invalid leaderboard query")

type LeaderboardRemote interface {
	FetchLeaderboard(ctx context.Context) ([]remote.LeaderboardRecord, error)
}

type LeaderboardQuery struct {
	Search string
	SortBy string // "rank" (default) or "name"
}

type Leaderboard struct {
	Entries     []model.LeaderboardEntry `json:"leaderboard"`
	TotalDonors int                      `json:"total_donors"`
}

type LeaderboardService struct {
	remote LeaderboardRemote
}

func NewLeaderboardService(r LeaderboardRemote) *LeaderboardService {
	return &LeaderboardService{remote: r}
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, q LeaderboardQuery) (Leaderboard, error) {
	sortBy := strings.ToLower(strings.TrimSpace(q.SortBy))
	switch sortBy {
	case "", "rank", "items_donated", "name":
	default:
		return Leaderboard{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, q.SortBy)
	}

	records, err := s.remote.FetchLeaderboard(ctx)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := ranking.Rank(mergeRecords(records))
	total := len(entries)
	entries = ranking.Search(entries, q.Search)
	if sortBy == "name" {
		entries = ranking.SortByName(entries)
	}

	return Leaderboard{Entries: entries, TotalDonors: total}, nil
}

// mergeRecords folds repeated donor ids into one summary, summing items.
func mergeRecords(records []remote.LeaderboardRecord) []model.DonorSummary {
	index := make(map[string]int, len(records))
	out := make([]model.DonorSummary, 0, len(records))
	for _, r := range records {
		id := string(r.DonorID)
		items := r.ItemsDonated
		if items < 0 {
			items = 0
		}
		if i, ok := index[id]; ok {
			out[i].ItemsDonated += items
			out[i].ImpactScore = ranking.ImpactScore(out[i].ItemsDonated, out[i].TotalDonations)
			continue
		}
		index[id] = len(out)
		out = append(out, model.DonorSummary{
			DonorID:      id,
			DisplayName:  r.DisplayName,
			ItemsDonated: items,
			ImpactScore:  ranking.ImpactScore(items, 0),
		})
	}
	return out
}
