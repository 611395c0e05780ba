package lifecycle

import (
	"fmt"
	"strings"

	"bridgeofhope/internal/model"
	"bridgeofhope/internal/store"
)

type Tab string

const (
	TabActive   Tab = "active"
	TabAccepted Tab = "accepted"
	TabDeclined Tab = "declined"
)

func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case "", TabActive:
		return TabActive, nil
	case TabAccepted:
		return TabAccepted, nil
	case TabDeclined:
		return TabDeclined, nil
	}
	return "", fmt.Errorf("%w: unknown tab %q", ErrValidation, s)
}

type Counts struct {
	Active   int `json:"active"`
	Accepted int `json:"accepted"`
	Declined int `json:"declined"`
}

func (c Counts) Total() int {
	return c.Active + c.Accepted + c.Declined
}

// View is the disjoint split of one store snapshot into the three tabs.
type View struct {
	Version  uint64
	Active   []model.PickupRequest
	Accepted []model.PickupRequest
	Declined []model.PickupRequest
}

// Partition walks the snapshot once. Every request lands in exactly one tab.
func Partition(snap store.Snapshot) View {
	v := View{
		Version:  snap.Version,
		Active:   []model.PickupRequest{},
		Accepted: []model.PickupRequest{},
		Declined: []model.PickupRequest{},
	}
	for _, r := range snap.Requests {
		switch {
		case r.Status == model.StatusAccepted:
			v.Accepted = append(v.Accepted, r)
		case r.Status == model.StatusDeclined:
			v.Declined = append(v.Declined, r)
		default:
			v.Active = append(v.Active, r)
		}
	}
	return v
}

func (v View) Counts() Counts {
	return Counts{
		Active:   len(v.Active),
		Accepted: len(v.Accepted),
		Declined: len(v.Declined),
	}
}

func (v View) Select(tab Tab) []model.PickupRequest {
	switch tab {
	case TabAccepted:
		return v.Accepted
	case TabDeclined:
		return v.Declined
	default:
		return v.Active
	}
}
