package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bridgeofhope/internal/model"
	"bridgeofhope/internal/ranking"
)

type DonorRemote interface {
	FetchDonations(ctx context.Context, donorID string) ([]model.PickupRequest, error)
	FetchDonors(ctx context.Context, donorIDs []string) (map[string]model.DonorDetails, error)
}

type DonorService struct {
	remote DonorRemote
}

func NewDonorService(r DonorRemote) *DonorService {
	return &DonorService{remote: r}
}

// Summary aggregates a donor's history. A non-empty item keeps only records
// with that item name.
func (s *DonorService) Summary(ctx context.Context, donorID, item string) (model.DonorSummary, error) {
	records, err := s.remote.FetchDonations(ctx, donorID)
	if err != nil {
		return model.DonorSummary{}, fmt.Errorf("fetch donations: %w", err)
	}
	directory, err := s.remote.FetchDonors(ctx, []string{donorID})
	if err != nil {
		return model.DonorSummary{}, fmt.Errorf("fetch donor: %w", err)
	}

	name := donorID
	if d, ok := directory[donorID]; ok && d.Name != "" {
		name = d.Name
	}

	mine := make([]model.PickupRequest, 0, len(records))
	for _, r := range records {
		if r.DonorID != "" && r.DonorID != donorID {
			continue
		}
		if item != "" && !strings.EqualFold(r.ItemName, item) {
			continue
		}
		if r.Quantity <= 0 {
			slog.Warn("skipping donation without items", "donor", donorID, "item", r.ItemName)
			continue
		}
		mine = append(mine, r)
	}

	return ranking.Summarize(donorID, name, mine), nil
}
