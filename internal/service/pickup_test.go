package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bridgeofhope/internal/lifecycle"
	"bridgeofhope/internal/model"
	"bridgeofhope/internal/remote"
	"bridgeofhope/internal/store"
)

// --- MOCKS ---

type fakeRemote struct {
	mu        sync.Mutex
	pickups   []model.PickupRequest
	accepted  []model.PickupRequest
	declined  []model.PickupRequest
	donors    map[string]model.DonorDetails
	donations []model.PickupRequest
	board     []remote.LeaderboardRecord

	// donorsGate, when set, parks FetchDonors after signalling donorsEntered.
	donorsEntered chan struct{}
	donorsGate    chan struct{}

	fetchErr    error
	submitErr   error
	submitDelay time.Duration
	submitted   []remote.DecisionRequest
}

func (f *fakeRemote) FetchPickups(ctx context.Context, orgID string) ([]model.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]model.PickupRequest(nil), f.pickups...), nil
}

func (f *fakeRemote) FetchAccepted(ctx context.Context) ([]model.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PickupRequest(nil), f.accepted...), nil
}

func (f *fakeRemote) FetchDeclined(ctx context.Context) ([]model.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PickupRequest(nil), f.declined...), nil
}

func (f *fakeRemote) FetchDonors(ctx context.Context, ids []string) (map[string]model.DonorDetails, error) {
	if f.donorsGate != nil {
		f.donorsEntered <- struct{}{}
		<-f.donorsGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]model.DonorDetails{}
	for _, id := range ids {
		if d, ok := f.donors[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (f *fakeRemote) FetchDonations(ctx context.Context, donorID string) ([]model.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]model.PickupRequest(nil), f.donations...), nil
}

func (f *fakeRemote) FetchLeaderboard(ctx context.Context) ([]remote.LeaderboardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]remote.LeaderboardRecord(nil), f.board...), nil
}

func (f *fakeRemote) SubmitDecision(ctx context.Context, d remote.DecisionRequest) error {
	if f.submitDelay > 0 {
		time.Sleep(f.submitDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, d)
	return nil
}

func (f *fakeRemote) submissions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type fakeRecorder struct {
	mu        sync.Mutex
	decisions []model.Decision
	err       error
}

func (r *fakeRecorder) Record(ctx context.Context, d model.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.decisions = append(r.decisions, d)
	return nil
}

// --- HELPERS ---

var fixedNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

const slot = "9:00 AM - 11:00 AM"

func newFixture(t *testing.T) (*PickupService, *fakeRemote, *fakeRecorder) {
	t.Helper()
	r := &fakeRemote{
		pickups: []model.PickupRequest{
			{DonorID: "x", ItemName: "Coat", Quantity: 2, Condition: model.ConditionGood},
			{DonorID: "y", ItemName: "Books", Quantity: 5, Condition: model.ConditionFair},
			{DonorID: "bad", ItemName: "Nothing", Quantity: 0},
		},
		accepted: []model.PickupRequest{
			{DonorID: "z", ItemName: "Chair", Quantity: 1, Status: model.StatusAccepted, OrganizationID: "o1", ScheduledDate: "2026-03-11", ScheduledTime: slot},
			{DonorID: "w", ItemName: "Desk", Quantity: 1, Status: model.StatusAccepted, OrganizationID: "other", ScheduledDate: "2026-03-11", ScheduledTime: slot},
			{DonorID: "v", ItemName: "Lamp", Quantity: 1, Status: model.StatusAccepted, ScheduledDate: "2026-03-11", ScheduledTime: slot},
		},
		donors: map[string]model.DonorDetails{
			"x": {DonorID: "x", Name: "Xena", Address: "1 Main St"},
		},
	}
	rec := &fakeRecorder{}
	svc := NewPickupService(r, rec, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	if _, err := svc.Refresh(context.Background(), "o1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return svc, r, rec
}

func assertScheduleInvariant(t *testing.T, v lifecycle.View) {
	t.Helper()
	for _, tab := range []lifecycle.Tab{lifecycle.TabActive, lifecycle.TabAccepted, lifecycle.TabDeclined} {
		for _, r := range v.Select(tab) {
			if err := r.Validate(); err != nil {
				t.Errorf("invariant broken in %s tab: %v", tab, err)
			}
		}
	}
}

// --- TESTS ---

func TestRefresh(t *testing.T) {
	svc, _, _ := newFixture(t)

	b, err := svc.Board(context.Background(), "o1")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	c := b.View.Counts()
	if c != (lifecycle.Counts{Active: 2, Accepted: 1}) {
		t.Errorf("unexpected counts %+v (invalid, foreign and ownerless decided records must be skipped)", c)
	}
	if b.Donors["x"].Name != "Xena" {
		t.Errorf("donor directory not loaded: %+v", b.Donors)
	}
	for _, r := range b.View.Active {
		if r.Status != model.StatusPending {
			t.Errorf("active record should be normalized to pending, got %q", r.Status)
		}
	}
	assertScheduleInvariant(t, b.View)
}

func TestRefresh_FailureLeavesStateUnchanged(t *testing.T) {
	svc, r, _ := newFixture(t)
	before, _ := svc.Board(context.Background(), "o1")

	r.fetchErr = fmt.Errorf("%w: boom", remote.ErrRemoteFailure)
	if _, err := svc.Refresh(context.Background(), "o1"); !errors.Is(err, remote.ErrRemoteFailure) {
		t.Fatalf("expected remote failure, got %v", err)
	}

	after, _ := svc.Board(context.Background(), "o1")
	if after.View.Version != before.View.Version || after.View.Counts() != before.View.Counts() {
		t.Errorf("failed refresh changed state: %+v -> %+v", before.View.Counts(), after.View.Counts())
	}
}

func TestBoard_LoadsOnFirstAccess(t *testing.T) {
	r := &fakeRemote{pickups: []model.PickupRequest{{DonorID: "x", Quantity: 1}}}
	svc := NewPickupService(r, nil, nil)

	b, err := svc.Board(context.Background(), "o9")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if b.View.Counts().Active != 1 {
		t.Errorf("expected one active request, got %+v", b.View.Counts())
	}
	if orgs := svc.Organizations(); len(orgs) != 1 || orgs[0] != "o9" {
		t.Errorf("unexpected organizations %v", orgs)
	}
}

func TestAccept(t *testing.T) {
	svc, r, rec := newFixture(t)

	res, err := svc.Accept(context.Background(), "o1", "x", "2026-03-12", slot)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Request.Status != model.StatusAccepted || res.Request.ScheduledDate != "2026-03-12" {
		t.Errorf("unexpected request %+v", res.Request)
	}
	if c := res.Board.View.Counts(); c != (lifecycle.Counts{Active: 1, Accepted: 2}) {
		t.Errorf("unexpected counts after accept %+v", c)
	}
	if len(r.submitted) != 1 || r.submitted[0].ScheduledTime != slot || r.submitted[0].OrganizationID != "o1" {
		t.Errorf("unexpected submissions %+v", r.submitted)
	}
	if len(rec.decisions) != 1 || rec.decisions[0].Outcome != model.StatusAccepted {
		t.Errorf("decision not recorded: %+v", rec.decisions)
	}
	assertScheduleInvariant(t, res.Board.View)
}

func TestTransitionFailures(t *testing.T) {
	tests := []struct {
		name          string
		run           func(svc *PickupService) error
		expectedError error
		donor         string
		expectStatus  model.Status
	}{
		{
			name: "accept with past date",
			run: func(svc *PickupService) error {
				_, err := svc.Accept(context.Background(), "o1", "x", "2026-03-09", slot)
				return err
			},
			expectedError: lifecycle.ErrValidation,
			donor:         "x",
			expectStatus:  model.StatusPending,
		},
		{
			name: "accept with unknown slot",
			run: func(svc *PickupService) error {
				_, err := svc.Accept(context.Background(), "o1", "x", "2026-03-12", "noon")
				return err
			},
			expectedError: lifecycle.ErrValidation,
			donor:         "x",
			expectStatus:  model.StatusPending,
		},
		{
			name: "decline an accepted request",
			run: func(svc *PickupService) error {
				_, err := svc.Decline(context.Background(), "o1", "z")
				return err
			},
			expectedError: lifecycle.ErrInvalidTransition,
			donor:         "z",
			expectStatus:  model.StatusAccepted,
		},
		{
			name: "accept an accepted request",
			run: func(svc *PickupService) error {
				_, err := svc.Accept(context.Background(), "o1", "z", "2026-03-12", slot)
				return err
			},
			expectedError: lifecycle.ErrInvalidTransition,
			donor:         "z",
			expectStatus:  model.StatusAccepted,
		},
		{
			name: "unknown donor",
			run: func(svc *PickupService) error {
				_, err := svc.Decline(context.Background(), "o1", "nobody")
				return err
			},
			expectedError: store.ErrNotFound,
		},
		{
			name: "organization never loaded",
			run: func(svc *PickupService) error {
				_, err := svc.Decline(context.Background(), "o2", "x")
				return err
			},
			expectedError: ErrNotLoaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, r, rec := newFixture(t)
			before, _ := svc.Board(context.Background(), "o1")

			err := tt.run(svc)
			if !errors.Is(err, tt.expectedError) {
				t.Fatalf("expected %v, got %v", tt.expectedError, err)
			}
			if r.submissions() != 0 {
				t.Errorf("rejected transition reached the remote service")
			}
			if len(rec.decisions) != 0 {
				t.Errorf("rejected transition was recorded")
			}

			after, _ := svc.Board(context.Background(), "o1")
			if after.View.Version != before.View.Version {
				t.Errorf("store version moved from %d to %d", before.View.Version, after.View.Version)
			}
			if tt.donor != "" {
				for _, req := range append(append(after.View.Active, after.View.Accepted...), after.View.Declined...) {
					if req.DonorID == tt.donor && req.Status != tt.expectStatus {
						t.Errorf("donor %s status changed to %s", tt.donor, req.Status)
					}
				}
			}
		})
	}
}

func TestRemoteFailureLeavesStateUnchanged(t *testing.T) {
	svc, r, rec := newFixture(t)
	r.submitErr = fmt.Errorf("%w: unexpected status: 500", remote.ErrRemoteFailure)
	before, _ := svc.Board(context.Background(), "o1")

	_, err := svc.Decline(context.Background(), "o1", "x")
	if !errors.Is(err, remote.ErrRemoteFailure) {
		t.Fatalf("expected remote failure, got %v", err)
	}

	after, _ := svc.Board(context.Background(), "o1")
	if after.View.Version != before.View.Version || after.View.Counts() != before.View.Counts() {
		t.Errorf("state changed after remote failure")
	}
	if len(rec.decisions) != 0 {
		t.Errorf("failed decision was recorded")
	}

	// No automatic retry: once the remote recovers the caller may try again.
	r.submitErr = nil
	if _, err := svc.Decline(context.Background(), "o1", "x"); err != nil {
		t.Errorf("retry after recovery failed: %v", err)
	}
}

func TestRecorderFailureDoesNotUndoCommit(t *testing.T) {
	svc, _, rec := newFixture(t)
	rec.err = errors.New("db down")

	res, err := svc.Decline(context.Background(), "o1", "x")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if res.Board.View.Counts().Declined != 1 {
		t.Errorf("expected decline to stay committed, got %+v", res.Board.View.Counts())
	}
}

func TestConcurrentAcceptAndDecline_DecidedOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc, r, _ := newFixture(t)
		r.submitDelay = time.Millisecond

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = svc.Accept(context.Background(), "o1", "x", "2026-03-12", slot)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = svc.Decline(context.Background(), "o1", "x")
		}()
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, lifecycle.ErrInvalidTransition):
				t.Fatalf("unexpected error %v", err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("expected exactly one transition to commit, got %d", succeeded)
		}
		if r.submissions() != 1 {
			t.Fatalf("expected exactly one remote submission, got %d", r.submissions())
		}
	}
}

func TestRefreshAll(t *testing.T) {
	svc, r, _ := newFixture(t)
	r.mu.Lock()
	r.pickups = append(r.pickups, model.PickupRequest{DonorID: "new", Quantity: 3})
	r.mu.Unlock()

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh all: %v", err)
	}
	b, _ := svc.Board(context.Background(), "o1")
	if b.View.Counts().Active != 3 {
		t.Errorf("expected refreshed board to include the new request, got %+v", b.View.Counts())
	}
}

func TestTwoOrganizations_DecideOnce(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newFixture(t)
	if _, err := svc.Refresh(ctx, "o2"); err != nil {
		t.Fatalf("refresh o2: %v", err)
	}

	if _, err := svc.Accept(ctx, "o1", "x", "2026-03-12", slot); err != nil {
		t.Fatalf("accept by o1: %v", err)
	}
	if _, err := svc.Decline(ctx, "o2", "x"); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("decline by o2: expected invalid transition, got %v", err)
	}
	if _, err := svc.Accept(ctx, "o2", "x", "2026-03-12", slot); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("accept by o2: expected invalid transition, got %v", err)
	}
	if r.submissions() != 1 {
		t.Fatalf("expected one remote submission, got %d", r.submissions())
	}

	// The remote feeds still list x as pending. Neither board may bring it back.
	for _, org := range []string{"o1", "o2"} {
		if _, err := svc.Refresh(ctx, org); err != nil {
			t.Fatalf("refresh %s: %v", org, err)
		}
	}
	o1, _ := svc.Board(ctx, "o1")
	if c := o1.View.Counts(); c != (lifecycle.Counts{Active: 1, Accepted: 2}) {
		t.Errorf("o1 counts %+v", c)
	}
	o2, _ := svc.Board(ctx, "o2")
	if c := o2.View.Counts(); c != (lifecycle.Counts{Active: 1}) {
		t.Errorf("o2 counts %+v", c)
	}
	for _, req := range o2.View.Active {
		if req.DonorID == "x" {
			t.Errorf("request decided by o1 still active for o2")
		}
	}
}

func TestTwoOrganizations_ConcurrentDecisions(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc, r, _ := newFixture(t)
		if _, err := svc.Refresh(context.Background(), "o2"); err != nil {
			t.Fatalf("refresh o2: %v", err)
		}
		r.submitDelay = time.Millisecond

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = svc.Accept(context.Background(), "o1", "x", "2026-03-12", slot)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = svc.Decline(context.Background(), "o2", "x")
		}()
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, lifecycle.ErrInvalidTransition):
				t.Fatalf("unexpected error %v", err)
			}
		}
		if succeeded != 1 || r.submissions() != 1 {
			t.Fatalf("expected one decision and one submission, got %d and %d", succeeded, r.submissions())
		}
	}
}

func TestRefreshOvertakenByCommit(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newFixture(t)
	r.donorsEntered = make(chan struct{})
	r.donorsGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx, "o1")
		done <- err
	}()
	<-r.donorsEntered

	if _, err := svc.Accept(ctx, "o1", "x", "2026-03-12", slot); err != nil {
		t.Fatalf("accept: %v", err)
	}
	close(r.donorsGate)
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}

	b, _ := svc.Board(ctx, "o1")
	if c := b.View.Counts(); c != (lifecycle.Counts{Active: 1, Accepted: 2}) {
		t.Fatalf("stale refresh undid the commit: %+v", c)
	}
	if _, err := svc.Decline(ctx, "o1", "x"); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if r.submissions() != 1 {
		t.Errorf("expected one remote submission, got %d", r.submissions())
	}
}

func TestNewRequestAfterDecisionIsPending(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newFixture(t)
	if _, err := svc.Decline(ctx, "o1", "x"); err != nil {
		t.Fatalf("decline: %v", err)
	}

	r.mu.Lock()
	r.pickups = []model.PickupRequest{{DonorID: "x", ItemName: "Scarf", Quantity: 1, SubmittedAt: fixedNow}}
	r.declined = []model.PickupRequest{{DonorID: "old", ItemName: "Hat", Quantity: 1, Status: model.StatusDeclined, OrganizationID: "o1"}}
	r.mu.Unlock()

	b, err := svc.Refresh(ctx, "o1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(b.View.Active) != 1 || b.View.Active[0].ItemName != "Scarf" {
		t.Fatalf("expected the new request to be active, got %+v", b.View.Active)
	}
	if _, err := svc.Accept(ctx, "o1", "x", "2026-03-12", slot); err != nil {
		t.Errorf("accepting the new request: %v", err)
	}
}
