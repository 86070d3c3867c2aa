package window

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/metrics"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
)

// Summary is one active window with its resolved host coverage, for the
// operator dashboard.
type Summary struct {
	WindowID    int               `json:"window_id"`
	Type        models.WindowType `json:"type"`
	Description string            `json:"description"`
	Hosts       []string          `json:"hosts"`
	ExpiresAt   string            `json:"expires_at,omitempty"`
	Cadence     string            `json:"cadence,omitempty"`
	TimeWindow  string            `json:"time_window,omitempty"`
}

// Aggregator lists every currently active window with its covered hosts.
type Aggregator struct {
	Windows *repo.WindowRepo
	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time
}

// NewAggregator returns an Aggregator using the system clock.
func NewAggregator(windows *repo.WindowRepo) *Aggregator {
	return &Aggregator{Windows: windows}
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// AllActive evaluates every window definition at one instant (each in its own
// timezone) and returns the active ones with their covered hosts. Windows
// covering nothing are dropped. A storage failure while resolving one window's
// hosts skips that window only; the rest of the summary still renders.
func (a *Aggregator) AllActive(ctx context.Context) ([]Summary, error) {
	now := a.now()
	windows, err := a.Windows.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []Summary
	active := 0
	for _, w := range windows {
		metrics.IncWindowEvaluation(string(w.Type))
		if !IsActive(w, now) {
			continue
		}
		active++

		hosts, err := a.coveredHosts(ctx, w.ID)
		if err != nil {
			slog.Warn("resolve covered hosts", "window_id", w.ID, "error", err)
			continue
		}
		if len(hosts) == 0 {
			continue
		}

		s := Summary{WindowID: w.ID, Type: w.Type, Description: w.Description, Hosts: hosts}
		if w.Type == models.WindowAdhoc {
			s.ExpiresAt = w.SilenceUntil.Format(timeLayout)
		} else {
			s.Cadence = w.Cadence
			s.TimeWindow = w.TimeWindow()
		}
		out = append(out, s)
	}
	metrics.SetActiveWindows(active)
	return out, nil
}

// coveredHosts resolves the window's host set. Direct mappings render as
// "hostname:port" and win over group-derived entries for the same host; group
// mappings render as "hostname:port (via <tag>)", once per (host, tag) pair.
func (a *Aggregator) coveredHosts(ctx context.Context, windowID int) ([]string, error) {
	direct, err := a.Windows.HostsFor(ctx, windowID)
	if err != nil {
		return nil, err
	}
	viaGroups, err := a.Windows.GroupHostsFor(ctx, windowID)
	if err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(direct)+len(viaGroups))
	directSet := make(map[string]bool, len(direct))
	for _, h := range direct {
		addr := h.Addr()
		if directSet[addr] {
			continue
		}
		directSet[addr] = true
		hosts = append(hosts, addr)
	}

	seen := make(map[string]bool, len(viaGroups))
	for _, gh := range viaGroups {
		addr := gh.Host.Addr()
		if directSet[addr] {
			continue
		}
		key := addr + "|" + gh.Tag
		if seen[key] {
			continue
		}
		seen[key] = true
		hosts = append(hosts, fmt.Sprintf("%s (via %s)", addr, gh.Tag))
	}
	return hosts, nil
}
