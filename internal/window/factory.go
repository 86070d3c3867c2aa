package window

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/metrics"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
)

// DefaultDescription is used when an ad-hoc request leaves the description blank.
const DefaultDescription = "Ad-hoc maintenance"

// MaxDurationMinutes caps ad-hoc windows at seven days.
const MaxDurationMinutes = 7 * 24 * 60

// ValidationError names the constraint an ad-hoc creation request violated.
// No storage write happens once one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Factory validates and creates ad-hoc windows.
type Factory struct {
	Windows *repo.WindowRepo
	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time
}

// NewFactory returns a Factory using the system clock.
func NewFactory(windows *repo.WindowRepo) *Factory {
	return &Factory{Windows: windows}
}

func (f *Factory) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Create validates the request, inserts the ad-hoc window and its single
// target mapping, and returns the new window id with the exact expiry instant.
func (f *Factory) Create(ctx context.Context, targetType string, targetID, durationMinutes int, description, createdBy string) (int, time.Time, error) {
	if targetType != "host" && targetType != "group" {
		return 0, time.Time{}, &ValidationError{Field: "target_type", Reason: `must be "host" or "group"`}
	}
	if targetID <= 0 {
		return 0, time.Time{}, &ValidationError{Field: "target_id", Reason: "must be a positive integer"}
	}
	if durationMinutes < 1 || durationMinutes > MaxDurationMinutes {
		return 0, time.Time{}, &ValidationError{
			Field:  "duration",
			Reason: fmt.Sprintf("must be between 1 and %d minutes", MaxDurationMinutes),
		}
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}

	until := f.now().Add(time.Duration(durationMinutes) * time.Minute)
	id, err := f.Windows.CreateAdhoc(ctx, until, description, createdBy, targetType, targetID)
	if err != nil {
		return 0, time.Time{}, err
	}
	metrics.IncAdhocCreated()
	return id, until, nil
}
