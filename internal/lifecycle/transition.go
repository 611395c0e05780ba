// Package lifecycle implements the pickup request state machine and the
// tab partitioning derived from it.
//
//	pending --accept--> accepted
//	pending --decline--> declined
//
// Both targets are terminal. Transitions are pure: they take a request by
// value and return the decided copy, leaving the input untouched.
package lifecycle

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"bridgeofhope/internal/model"
)

var TimeSlots = []string{
	"9:00 AM - 11:00 AM",
	"11:00 AM - 1:00 PM",
	"1:00 PM - 3:00 PM",
	"3:00 PM - 5:00 PM",
	"5:00 PM - 7:00 PM",
}

func ValidTimeSlot(slot string) bool {
	return slices.Contains(TimeSlots, slot)
}

// Accept schedules a pending request. today is the caller's current date;
// only its calendar day is used.
func Accept(req model.PickupRequest, orgID, date, slot string, today time.Time) (model.PickupRequest, error) {
	if err := checkPending(req); err != nil {
		return req, err
	}
	if err := checkOrganization(orgID); err != nil {
		return req, err
	}

	day, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return req, fmt.Errorf("%w: pickup date %q is not YYYY-MM-DD", ErrValidation, date)
	}
	if day.Before(civilDay(today)) {
		return req, fmt.Errorf("%w: pickup date %s is in the past", ErrValidation, day.Format(time.DateOnly))
	}
	if !ValidTimeSlot(slot) {
		return req, fmt.Errorf("%w: unknown pickup time slot %q", ErrValidation, slot)
	}

	next := req
	next.Status = model.StatusAccepted
	next.OrganizationID = orgID
	next.ScheduledDate = day.Format(time.DateOnly)
	next.ScheduledTime = slot
	return next, nil
}

func Decline(req model.PickupRequest, orgID string) (model.PickupRequest, error) {
	if err := checkPending(req); err != nil {
		return req, err
	}
	if err := checkOrganization(orgID); err != nil {
		return req, err
	}

	next := req
	next.Status = model.StatusDeclined
	next.OrganizationID = orgID
	next.ScheduledDate = ""
	next.ScheduledTime = ""
	return next, nil
}

func checkPending(req model.PickupRequest) error {
	if !req.Status.Pending() {
		return fmt.Errorf("%w: request from donor %s is already %s", ErrInvalidTransition, req.DonorID, req.Status)
	}
	return nil
}

func checkOrganization(orgID string) error {
	if strings.TrimSpace(orgID) == "" {
		return fmt.Errorf("%w: organization id required", ErrValidation)
	}
	return nil
}

// civilDay drops the clock part of t in its own location and returns the
// date as midnight UTC, comparable with dates parsed by time.Parse.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
