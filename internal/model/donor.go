package model

import (
	"encoding/json"
	"time"
)

// NotAvailable is rendered in place of a last-donation date for donors
// without any records.
const NotAvailable = "N/A"

type DonorDetails struct {
	DonorID string `json:"donor_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type DonorSummary struct {
	DonorID        string    `json:"donor_id"`
	DisplayName    string    `json:"full_name"`
	TotalDonations int       `json:"total_donations"`
	ItemsDonated   int       `json:"items_donated"`
	LastDonation   time.Time `json:"-"`
	ImpactScore    int       `json:"impact_score"`
}

func (s DonorSummary) LastDonationDate() string {
	if s.LastDonation.IsZero() {
		return NotAvailable
	}
	return s.LastDonation.Format(time.DateOnly)
}

func (s DonorSummary) MarshalJSON() ([]byte, error) {
	type Alias DonorSummary
	return json.Marshal(&struct {
		LastDonation string `json:"last_donation"`
		Alias
	}{
		LastDonation: s.LastDonationDate(),
		Alias:        Alias(s),
	})
}

type Tier struct {
	Name     string `json:"name"`
	MinItems int    `json:"min_items"`
}

type Badge string

const (
	BadgeNone  Badge = ""
	BadgeCrown Badge = "crown"
	BadgeMedal Badge = "medal"
)

type LeaderboardEntry struct {
	Rank    int          `json:"rank"`
	Summary DonorSummary `json:"donor"`
	Tier    *Tier        `json:"tier,omitempty"`
	Badge   Badge        `json:"badge,omitempty"`
}
