package model

import "time"

// Decision is the audit record of a committed accept or decline.
type Decision struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organisation_id"`
	DonorID        string    `json:"donor_id"`
	Outcome        Status    `json:"outcome"`
	ScheduledDate  string    `json:"pickup_date,omitempty"`
	ScheduledTime  string    `json:"pickup_time,omitempty"`
	DecidedAt      time.Time `json:"decided_at"`
}
