package window

import (
	"context"
	"time"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/metrics"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
)

// Silence describes an active window covering a host, presentation-ready.
type Silence struct {
	WindowID    int               `json:"window_id"`
	Type        models.WindowType `json:"type"`
	Description string            `json:"description"`
	Target      string            `json:"target"` // "host" or "group"
	GroupTag    string            `json:"group_tag,omitempty"`
	ExpiresAt   string            `json:"expires_at,omitempty"`  // adhoc
	Cadence     string            `json:"cadence,omitempty"`     // scheduled
	TimeWindow  string            `json:"time_window,omitempty"` // scheduled
}

// Resolver answers "which active window, if any, covers this host".
type Resolver struct {
	Windows *repo.WindowRepo
	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time
}

// NewResolver returns a Resolver using the system clock.
func NewResolver(windows *repo.WindowRepo) *Resolver {
	return &Resolver{Windows: windows}
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// ActiveWindowFor returns the first active window covering the host, or nil
// when the host is not silenced. Direct mappings are checked before windows
// reached through the host's group memberships; within each set, the oldest
// window (lowest id, the retrieval order) wins.
func (r *Resolver) ActiveWindowFor(ctx context.Context, hostID int) (*Silence, error) {
	now := r.now()

	direct, err := r.Windows.ListForHost(ctx, hostID)
	if err != nil {
		return nil, err
	}
	for _, w := range direct {
		metrics.IncWindowEvaluation(string(w.Type))
		if IsActive(w, now) {
			s := newSilence(w, "host", "")
			return &s, nil
		}
	}

	viaGroups, err := r.Windows.ListForHostGroups(ctx, hostID)
	if err != nil {
		return nil, err
	}
	for _, gw := range viaGroups {
		metrics.IncWindowEvaluation(string(gw.Window.Type))
		if IsActive(gw.Window, now) {
			s := newSilence(gw.Window, "group", gw.GroupTag)
			return &s, nil
		}
	}
	return nil, nil
}

func newSilence(w models.MaintenanceWindow, target, tag string) Silence {
	s := Silence{
		WindowID:    w.ID,
		Type:        w.Type,
		Description: w.Description,
		Target:      target,
		GroupTag:    tag,
	}
	if w.Type == models.WindowAdhoc {
		s.ExpiresAt = w.SilenceUntil.Format(timeLayout)
	} else {
		s.Cadence = w.Cadence
		s.TimeWindow = w.TimeWindow()
	}
	return s
}
