package service

import (
	"sync"
	"time"

	"bridgeofhope/internal/model"
)

// decidedTTL bounds how long a committed decision overrides remote data.
// It only has to outlive any refresh that was in flight at commit time.
const decidedTTL = 24 * time.Hour

type decidedEntry struct {
	request   model.PickupRequest
	decidedAt time.Time
}

// decidedSet holds every decision committed by this process, shared by all
// organization boards. A request decided through any board is terminal on
// every board, whatever a lagging remote feed says.
type decidedSet struct {
	mu      sync.RWMutex
	byDonor map[string]decidedEntry
}

func (d *decidedSet) record(req model.PickupRequest, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.byDonor == nil {
		d.byDonor = make(map[string]decidedEntry)
	}
	for id, e := range d.byDonor {
		if at.Sub(e.decidedAt) > decidedTTL {
			delete(d.byDonor, id)
		}
	}
	d.byDonor[req.DonorID] = decidedEntry{request: req, decidedAt: at}
}

// overrides returns the committed decision that supersedes r, if any. A
// request submitted after the decision is a new request and is left alone.
func (d *decidedSet) overrides(r model.PickupRequest) (model.PickupRequest, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byDonor[r.DonorID]
	if !ok || r.SubmittedAt.After(e.request.SubmittedAt) {
		return model.PickupRequest{}, false
	}
	return e.request, true
}

// apply rewrites records as orgID must see them: its own decisions replace
// stale copies, decisions made by other organizations drop out.
func (d *decidedSet) apply(orgID string, records []model.PickupRequest) []model.PickupRequest {
	out := records[:0:0]
	for _, r := range records {
		if dec, ok := d.overrides(r); ok {
			if dec.OrganizationID != orgID {
				continue
			}
			r = dec
		}
		out = append(out, r)
	}
	return out
}
