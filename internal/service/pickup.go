package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"bridgeofhope/internal/lifecycle"
	"bridgeofhope/internal/model"
	"bridgeofhope/internal/remote"
	"bridgeofhope/internal/store"
)

var ErrNotLoaded = errors.New("pickups not loaded for organization")

type PickupRemote interface {
	FetchPickups(ctx context.Context, orgID string) ([]model.PickupRequest, error)
	FetchAccepted(ctx context.Context) ([]model.PickupRequest, error)
	FetchDeclined(ctx context.Context) ([]model.PickupRequest, error)
	FetchDonors(ctx context.Context, donorIDs []string) (map[string]model.DonorDetails, error)
	SubmitDecision(ctx context.Context, d remote.DecisionRequest) error
}

type DecisionRecorder interface {
	Record(ctx context.Context, d model.Decision) error
}

// Board is what an organization sees: the partitioned requests plus the
// directory entries of the donors behind them.
type Board struct {
	View   lifecycle.View
	Donors map[string]model.DonorDetails
}

// Result is returned by a committed transition.
type Result struct {
	Request model.PickupRequest
	Board   Board
}

type orgBoard struct {
	orgID    string
	requests *store.RequestStore

	mu     sync.RWMutex
	ticket uint64 // last refresh or commit applied to requests
	donors map[string]model.DonorDetails
}

type PickupService struct {
	remote   PickupRemote
	recorder DecisionRecorder
	now      func() time.Time

	mu      sync.Mutex
	boards  map[string]*orgBoard
	locks   keyedMutex
	decided decidedSet
	tickets atomic.Uint64
}

// NewPickupService wires the transition engine to the remote service.
// recorder may be nil. Dates are judged in loc.
func NewPickupService(r PickupRemote, recorder DecisionRecorder, loc *time.Location) *PickupService {
	if loc == nil {
		loc = time.UTC
	}
	return &PickupService{
		remote:   r,
		recorder: recorder,
		now:      func() time.Time { return time.Now().In(loc) },
		boards:   make(map[string]*orgBoard),
	}
}

// Refresh re-fetches everything for the organization and replaces its
// board wholesale. Nothing changes locally if any fetch fails. A refresh
// overtaken by a commit or a newer refresh on the same board is discarded.
func (s *PickupService) Refresh(ctx context.Context, orgID string) (Board, error) {
	ticket := s.tickets.Add(1)

	pickups, err := s.remote.FetchPickups(ctx, orgID)
	if err != nil {
		return Board{}, fmt.Errorf("fetch pickups: %w", err)
	}
	accepted, err := s.remote.FetchAccepted(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("fetch accepted: %w", err)
	}
	declined, err := s.remote.FetchDeclined(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("fetch declined: %w", err)
	}

	records := make([]model.PickupRequest, 0, len(pickups)+len(accepted)+len(declined))
	records = appendValid(records, pickups, orgID)
	records = appendValid(records, accepted, orgID)
	records = appendValid(records, declined, orgID)
	records = s.decided.apply(orgID, records)

	donors, err := s.remote.FetchDonors(ctx, donorIDs(records))
	if err != nil {
		return Board{}, fmt.Errorf("fetch donors: %w", err)
	}

	b := s.boardFor(orgID, true)
	b.mu.Lock()
	if ticket < b.ticket {
		b.mu.Unlock()
		slog.Info("stale pickup refresh discarded", "org", orgID)
		return s.snapshot(b), nil
	}
	b.ticket = ticket
	b.requests.Load(records)
	b.donors = donors
	b.mu.Unlock()

	slog.Info("pickups refreshed", "org", orgID, "count", len(records))
	return s.snapshot(b), nil
}

// RefreshAll refreshes every organization that has been loaded before.
func (s *PickupService) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, orgID := range s.Organizations() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.Refresh(ctx, orgID); err != nil {
			errs = append(errs, fmt.Errorf("org %s: %w", orgID, err))
		}
	}
	return errors.Join(errs...)
}

// Board returns the current board, loading it on first access.
func (s *PickupService) Board(ctx context.Context, orgID string) (Board, error) {
	if b := s.boardFor(orgID, false); b != nil {
		return s.snapshot(b), nil
	}
	return s.Refresh(ctx, orgID)
}

func (s *PickupService) Accept(ctx context.Context, orgID, donorID, date, slot string) (Result, error) {
	unlock := s.locks.Lock(donorID)
	defer unlock()

	b, req, err := s.lookup(orgID, donorID)
	if err != nil {
		return Result{}, err
	}
	next, err := lifecycle.Accept(req, orgID, date, slot, s.now())
	if err != nil {
		return Result{}, err
	}
	return s.commit(ctx, b, next)
}

func (s *PickupService) Decline(ctx context.Context, orgID, donorID string) (Result, error) {
	unlock := s.locks.Lock(donorID)
	defer unlock()

	b, req, err := s.lookup(orgID, donorID)
	if err != nil {
		return Result{}, err
	}
	next, err := lifecycle.Decline(req, orgID)
	if err != nil {
		return Result{}, err
	}
	return s.commit(ctx, b, next)
}

func (s *PickupService) Organizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.boards))
	for id := range s.boards {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *PickupService) lookup(orgID, donorID string) (*orgBoard, model.PickupRequest, error) {
	b := s.boardFor(orgID, false)
	if b == nil {
		return nil, model.PickupRequest{}, ErrNotLoaded
	}
	req, err := b.requests.Get(donorID)
	if err != nil {
		return nil, model.PickupRequest{}, fmt.Errorf("donor %s: %w", donorID, err)
	}
	if dec, ok := s.decided.overrides(req); ok {
		req = dec
	}
	return b, req, nil
}

// commit submits the decided request and only then writes it locally.
func (s *PickupService) commit(ctx context.Context, b *orgBoard, next model.PickupRequest) (Result, error) {
	err := s.remote.SubmitDecision(ctx, remote.DecisionRequest{
		DonorID:        next.DonorID,
		OrganizationID: next.OrganizationID,
		ScheduledDate:  next.ScheduledDate,
		ScheduledTime:  next.ScheduledTime,
	})
	if err != nil {
		return Result{}, fmt.Errorf("submit decision: %w", err)
	}

	s.decided.record(next, s.now())

	b.mu.Lock()
	b.ticket = s.tickets.Add(1)
	if _, err := b.requests.Put(next); err != nil {
		// A refresh dropped the record while the call was in flight; the
		// remote service already holds the decision.
		slog.Warn("decided request missing from store", "donor", next.DonorID, "error", err)
	}
	b.mu.Unlock()

	if s.recorder != nil {
		d := model.Decision{
			OrganizationID: next.OrganizationID,
			DonorID:        next.DonorID,
			Outcome:        next.Status,
			ScheduledDate:  next.ScheduledDate,
			ScheduledTime:  next.ScheduledTime,
			DecidedAt:      s.now(),
		}
		if err := s.recorder.Record(ctx, d); err != nil {
			slog.Error("failed to record decision", "donor", next.DonorID, "error", err)
		}
	}

	slog.Info("pickup decided", "org", next.OrganizationID, "donor", next.DonorID, "status", next.Status)
	return Result{Request: next, Board: s.snapshot(b)}, nil
}

func (s *PickupService) boardFor(orgID string, create bool) *orgBoard {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[orgID]
	if !ok && create {
		b = &orgBoard{orgID: orgID, requests: store.NewRequestStore(), donors: map[string]model.DonorDetails{}}
		s.boards[orgID] = b
	}
	return b
}

func (s *PickupService) snapshot(b *orgBoard) Board {
	snap := b.requests.Snapshot()
	snap.Requests = s.decided.apply(b.orgID, snap.Requests)
	view := lifecycle.Partition(snap)

	b.mu.RLock()
	defer b.mu.RUnlock()
	donors := make(map[string]model.DonorDetails, len(b.donors))
	for k, v := range b.donors {
		donors[k] = v
	}
	return Board{View: view, Donors: donors}
}

// appendValid keeps records that satisfy the request invariants and, for
// decided ones, belong to orgID. The decided feeds are shared by every
// organization, so a decided record without an owner belongs to no board.
func appendValid(dst, src []model.PickupRequest, orgID string) []model.PickupRequest {
	for _, r := range src {
		if err := r.Validate(); err != nil {
			slog.Warn("skipping invalid pickup record", "error", err)
			continue
		}
		if r.Status.Terminal() && r.OrganizationID != orgID {
			continue
		}
		if r.Status.Pending() {
			r.Status = model.StatusPending
		}
		dst = append(dst, r)
	}
	return dst
}

func donorIDs(records []model.PickupRequest) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.DonorID]; ok {
			continue
		}
		seen[r.DonorID] = struct{}{}
		out = append(out, r.DonorID)
	}
	return out
}
