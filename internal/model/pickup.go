package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Pending treats the zero value as pending, matching records that were
// never decided and carry no status field at all.
func (s Status) Pending() bool {
	return s == "" || s == StatusPending
}

// Terminal reports whether the request has already been decided.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// UnmarshalJSON maps an absent or empty status to pending and rejects
// anything outside the three known states.
func (s *Status) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = StatusPending
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StatusPending:
		return StatusPending, nil
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusDeclined:
		return StatusDeclined, nil
	}
	return "", fmt.Errorf("unknown pickup status %q", raw)
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// PickupRequest is a donor's submitted donation awaiting an organization's decision.
// ScheduledDate and ScheduledTime are set if and only if Status is accepted.
type PickupRequest struct {
	DonorID        string    `json:"donor_id"`
	ItemName       string    `json:"itemname"`
	Condition      Condition `json:"condition"`
	Quantity       int       `json:"number_items"`
	Notes          string    `json:"additional_notes,omitempty"`
	SubmittedAt    time.Time `json:"donation_date"`
	Status         Status    `json:"status"`
	OrganizationID string    `json:"organisation_id,omitempty"`
	ScheduledDate  string    `json:"pickup_date,omitempty"` // YYYY-MM-DD
	ScheduledTime  string    `json:"pickup_time,omitempty"`
}

// Validate checks the structural invariants of a record received from the
// remote service.
func (r PickupRequest) Validate() error {
	if strings.TrimSpace(r.DonorID) == "" {
		return fmt.Errorf("missing donor id")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("donor %s: quantity must be positive, got %d", r.DonorID, r.Quantity)
	}
	scheduled := r.ScheduledDate != "" && r.ScheduledTime != ""
	unscheduled := r.ScheduledDate == "" && r.ScheduledTime == ""
	switch {
	case r.Status == StatusAccepted && !scheduled:
		return fmt.Errorf("donor %s: accepted request without pickup date and time", r.DonorID)
	case r.Status != StatusAccepted && !unscheduled:
		return fmt.Errorf("donor %s: unaccepted request carries a pickup schedule", r.DonorID)
	}
	return nil
}

var submittedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// UnmarshalJSON accepts the several date layouts the persistence API has
// used for donation_date.
func (r *PickupRequest) UnmarshalJSON(b []byte) error {
	type Alias PickupRequest
	aux := struct {
		SubmittedAt string `json:"donation_date"`
		*Alias
	}{Alias: (*Alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	r.SubmittedAt = time.Time{}
	if aux.SubmittedAt == "" {
		return nil
	}
	for _, layout := range submittedLayouts {
		if t, err := time.Parse(layout, aux.SubmittedAt); err == nil {
			r.SubmittedAt = t
			return nil
		}
	}
	return fmt.Errorf("donor %s: unparsable donation_date %q", r.DonorID, aux.SubmittedAt)
}
