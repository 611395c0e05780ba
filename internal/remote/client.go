// Package remote talks to the donation persistence API, which owns the
// durable state of pickup requests, donors and the leaderboard.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bridgeofhope/internal/model"
)

// ErrRemoteFailure wraps every transport error and non-2xx response.
var ErrRemoteFailure = errors.New("remote service failure")

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// DecisionRequest is the body of an accept or decline submission.
type DecisionRequest struct {
	DonorID        string `json:"donor_id"`
	OrganizationID string `json:"organisation_id"`
	ScheduledDate  string `json:"pickup_date,omitempty"`
	ScheduledTime  string `json:"pickup_time,omitempty"`
}

// LeaderboardRecord is one row of the leaderboard source. The service sends
// donor_id as a JSON number here, unlike every other endpoint.
type LeaderboardRecord struct {
	DonorID      FlexibleID `json:"donor_id"`
	DisplayName  string     `json:"full_name"`
	ItemsDonated int        `json:"items_donated"`
}

type donorInfo struct {
	DonorID FlexibleID `json:"donor_id"`
	Name    string     `json:"full_name"`
	Address string     `json:"address"`
}

// FlexibleID decodes an identifier sent either as a string or a number.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

func (c *Client) FetchPickups(ctx context.Context, orgID string) ([]model.PickupRequest, error) {
	q := url.Values{"organizations_id": {orgID}}
	var out []model.PickupRequest
	if err := c.getJSON(ctx, "/organisationPickup", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchAccepted(ctx context.Context) ([]model.PickupRequest, error) {
	var out []model.PickupRequest
	if err := c.getJSON(ctx, "/req_accept", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchDeclined(ctx context.Context) ([]model.PickupRequest, error) {
	var out []model.PickupRequest
	if err := c.getJSON(ctx, "/req_decline", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDonations returns a donor's full donation history.
func (c *Client) FetchDonations(ctx context.Context, donorID string) ([]model.PickupRequest, error) {
	q := url.Values{"donor_id": {donorID}}
	var out []model.PickupRequest
	if err := c.getJSON(ctx, "/donationDetails", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchDonors(ctx context.Context, donorIDs []string) (map[string]model.DonorDetails, error) {
	out := make(map[string]model.DonorDetails, len(donorIDs))
	if len(donorIDs) == 0 {
		return out, nil
	}

	q := url.Values{"donor_ids": {strings.Join(donorIDs, ",")}}
	var rows []donorInfo
	if err := c.getJSON(ctx, "/donorInfo", q, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		id := string(r.DonorID)
		out[id] = model.DonorDetails{DonorID: id, Name: r.Name, Address: r.Address}
	}
	return out, nil
}

func (c *Client) FetchLeaderboard(ctx context.Context) ([]LeaderboardRecord, error) {
	var out []LeaderboardRecord
	if err := c.getJSON(ctx, "/leaderBoard", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitDecision posts an accept (when a schedule is present) or a decline.
func (c *Client) SubmitDecision(ctx context.Context, d DecisionRequest) error {
	path := "/declineRequest"
	if d.ScheduledDate != "" {
		path = "/acceptRequest"
	}

	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %v", ErrRemoteFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return unexpectedStatus(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %v", ErrRemoteFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrRemoteFailure, path, err)
		}
		return nil
	default:
		return unexpectedStatus(resp)
	}
}

func unexpectedStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: unexpected status: %d, body: %s",
		ErrRemoteFailure, resp.StatusCode, strings.TrimSpace(string(body)))
}
