package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/schedule"
)

// WindowRepo persists maintenance windows and their host/group mappings.
type WindowRepo struct {
	DB *sql.DB
	// DefaultLocation is used when a row's timezone is absent or invalid.
	DefaultLocation *time.Location
}

// NewWindowRepo returns a new WindowRepo. defaultLoc falls back to UTC when nil.
func NewWindowRepo(db *sql.DB, defaultLoc *time.Location) *WindowRepo {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &WindowRepo{DB: db, DefaultLocation: defaultLoc}
}

const windowColumns = `w.id, w.window_type, w.schedule_type, w.days_of_week, w.day_of_month,
		w.month_of_year, w.period_days, w.period_start_date, w.start_time, w.end_time,
		w.timezone, w.silence_until, w.description, w.created_by, w.created_at, w.updated_at`

// GroupWindow is a window reachable through a host's group membership.
type GroupWindow struct {
	Window   models.MaintenanceWindow
	GroupTag string
}

// GroupHost is a member host of a group mapped to a window.
type GroupHost struct {
	Host models.Host
	Tag  string
}

// ScheduledWindowInput is the payload for creating or updating a scheduled window.
type ScheduledWindowInput struct {
	Spec        schedule.Spec
	StartTime   string // "HH:MM:SS", empty for all-day
	EndTime     string
	Timezone    string
	Description string
	HostIDs     []int
	GroupIDs    []int
}

// Count returns the total number of maintenance windows.
func (r *WindowRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM maintenance_windows").Scan(&n)
	return n, err
}

// ListAll returns every window definition, oldest first. The ordering is the
// tie-break for simultaneously active windows, so it must stay ORDER BY id.
func (r *WindowRepo) ListAll(ctx context.Context) ([]models.MaintenanceWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM maintenance_windows w
		ORDER BY w.id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectWindows(rows)
}

// ListForHost returns windows mapped directly to the host, oldest first.
func (r *WindowRepo) ListForHost(ctx context.Context, hostID int) ([]models.MaintenanceWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM maintenance_windows w
		JOIN maintenance_window_host_map m ON m.window_id = w.id
		WHERE m.host_id = $1
		ORDER BY w.id
	`
	rows, err := r.DB.QueryContext(ctx, query, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectWindows(rows)
}

// ListForHostGroups returns windows reachable through the host's group
// memberships, with the tag of the group that provides the mapping.
func (r *WindowRepo) ListForHostGroups(ctx context.Context, hostID int) ([]GroupWindow, error) {
	query := `
		SELECT ` + windowColumns + `, g.tag
		FROM maintenance_windows w
		JOIN maintenance_window_host_group_map m ON m.window_id = w.id
		JOIN host_groups g ON g.id = m.group_id
		JOIN host_group_map hg ON hg.group_id = g.id
		WHERE hg.host_id = $1
		ORDER BY w.id, g.tag
	`
	rows, err := r.DB.QueryContext(ctx, query, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []GroupWindow
	for rows.Next() {
		var gw GroupWindow
		w, err := r.scanWindow(rows, &gw.GroupTag)
		if err != nil {
			return nil, err
		}
		gw.Window = w
		list = append(list, gw)
	}
	return list, rows.Err()
}

// GetByID returns one window by id, or nil when absent.
func (r *WindowRepo) GetByID(ctx context.Context, id int) (*models.MaintenanceWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM maintenance_windows w
		WHERE w.id = $1
	`
	w, err := r.scanWindow(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// HostsFor returns hosts mapped directly to the window.
func (r *WindowRepo) HostsFor(ctx context.Context, windowID int) ([]models.Host, error) {
	query := `
		SELECT h.id, h.hostname, h.port, h.created_at
		FROM hosts h
		JOIN maintenance_window_host_map m ON m.host_id = h.id
		WHERE m.window_id = $1
		ORDER BY h.hostname, h.port
	`
	rows, err := r.DB.QueryContext(ctx, query, windowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Host
	for rows.Next() {
		var h models.Host
		if err := rows.Scan(&h.ID, &h.Hostname, &h.Port, &h.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// GroupHostsFor returns member hosts of every group mapped to the window,
// with the group's tag. One row per (host, group) pair.
func (r *WindowRepo) GroupHostsFor(ctx context.Context, windowID int) ([]GroupHost, error) {
	query := `
		SELECT h.id, h.hostname, h.port, h.created_at, g.tag
		FROM hosts h
		JOIN host_group_map hg ON hg.host_id = h.id
		JOIN host_groups g ON g.id = hg.group_id
		JOIN maintenance_window_host_group_map m ON m.group_id = g.id
		WHERE m.window_id = $1
		ORDER BY g.tag, h.hostname, h.port
	`
	rows, err := r.DB.QueryContext(ctx, query, windowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []GroupHost
	for rows.Next() {
		var gh GroupHost
		if err := rows.Scan(&gh.Host.ID, &gh.Host.Hostname, &gh.Host.Port, &gh.Host.CreatedAt, &gh.Tag); err != nil {
			return nil, err
		}
		list = append(list, gh)
	}
	return list, rows.Err()
}

// CreateAdhoc inserts an ad-hoc window and its single host or group mapping in
// one transaction, so a mapping failure cannot leave an orphan window row.
// targetType must be "host" or "group" (validated by the factory).
func (r *WindowRepo) CreateAdhoc(ctx context.Context, until time.Time, description, createdBy, targetType string, targetID int) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO maintenance_windows (window_type, silence_until, description, created_by)
		VALUES ('adhoc', $1, $2, $3)
		RETURNING id
	`, until, description, createdBy).Scan(&id)
	if err != nil {
		return 0, err
	}

	switch targetType {
	case "host":
		_, err = tx.ExecContext(ctx,
			`INSERT INTO maintenance_window_host_map (window_id, host_id) VALUES ($1, $2)`, id, targetID)
	case "group":
		_, err = tx.ExecContext(ctx,
			`INSERT INTO maintenance_window_host_group_map (window_id, group_id) VALUES ($1, $2)`, id, targetID)
	default:
		err = fmt.Errorf("unknown target type %q", targetType)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateScheduled inserts a scheduled window and its target mappings in one
// transaction and returns the new window id. Input validation is the handler's
// responsibility.
func (r *WindowRepo) CreateScheduled(ctx context.Context, in ScheduledWindowInput) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO maintenance_windows
			(window_type, schedule_type, days_of_week, day_of_month, month_of_year,
			 period_days, period_start_date, start_time, end_time, timezone, description)
		VALUES ('scheduled', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, in.Spec.Kind, nullString(in.Spec.DaysOfWeek), nullInt(in.Spec.DayOfMonth),
		nullInt(in.Spec.MonthOfYear), nullInt(in.Spec.PeriodDays), nullDate(in.Spec.PeriodStart),
		nullString(in.StartTime), nullString(in.EndTime), nullString(in.Timezone), in.Description,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := insertMappings(ctx, tx, id, in.HostIDs, in.GroupIDs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateScheduled rewrites a scheduled window's fields and replaces its target
// mappings in one transaction.
func (r *WindowRepo) UpdateScheduled(ctx context.Context, id int, in ScheduledWindowInput) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE maintenance_windows
		SET schedule_type = $1, days_of_week = $2, day_of_month = $3, month_of_year = $4,
			period_days = $5, period_start_date = $6, start_time = $7, end_time = $8,
			timezone = $9, description = $10, updated_at = now()
		WHERE id = $11 AND window_type = 'scheduled'
	`, in.Spec.Kind, nullString(in.Spec.DaysOfWeek), nullInt(in.Spec.DayOfMonth),
		nullInt(in.Spec.MonthOfYear), nullInt(in.Spec.PeriodDays), nullDate(in.Spec.PeriodStart),
		nullString(in.StartTime), nullString(in.EndTime), nullString(in.Timezone), in.Description, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM maintenance_window_host_map WHERE window_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM maintenance_window_host_group_map WHERE window_id = $1`, id); err != nil {
		return err
	}
	if err := insertMappings(ctx, tx, id, in.HostIDs, in.GroupIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a window; mappings cascade.
func (r *WindowRepo) Delete(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM maintenance_windows WHERE id = $1`, id)
	return err
}

func insertMappings(ctx context.Context, tx *sql.Tx, windowID int, hostIDs, groupIDs []int) error {
	for _, hostID := range hostIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO maintenance_window_host_map (window_id, host_id) VALUES ($1, $2)`,
			windowID, hostID); err != nil {
			return err
		}
	}
	for _, groupID := range groupIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO maintenance_window_host_group_map (window_id, group_id) VALUES ($1, $2)`,
			windowID, groupID); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WindowRepo) collectWindows(rows *sql.Rows) ([]models.MaintenanceWindow, error) {
	var list []models.MaintenanceWindow
	for rows.Next() {
		w, err := r.scanWindow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// scanWindow scans one window row. extra columns (e.g. a group tag) are
// appended after the window columns.
func (r *WindowRepo) scanWindow(row rowScanner, extra ...any) (models.MaintenanceWindow, error) {
	var (
		w                                 models.MaintenanceWindow
		wtype                             string
		scheduleType, daysOfWeek          sql.NullString
		startTime, endTime, tz, createdBy sql.NullString
		dayOfMonth, monthOfYear, period   sql.NullInt64
		periodStart, silenceUntil         sql.NullTime
	)
	dest := []any{
		&w.ID, &wtype, &scheduleType, &daysOfWeek, &dayOfMonth, &monthOfYear,
		&period, &periodStart, &startTime, &endTime, &tz, &silenceUntil,
		&w.Description, &createdBy, &w.CreatedAt, &w.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return w, err
	}

	w.Type = models.WindowType(wtype)
	w.CreatedBy = createdBy.String
	if w.Type == models.WindowAdhoc {
		w.SilenceUntil = silenceUntil.Time
		return w, nil
	}

	spec := schedule.Spec{
		Kind:        scheduleType.String,
		DaysOfWeek:  daysOfWeek.String,
		DayOfMonth:  int(dayOfMonth.Int64),
		MonthOfYear: int(monthOfYear.Int64),
		PeriodDays:  int(period.Int64),
	}
	if periodStart.Valid {
		spec.PeriodStart = periodStart.Time
	}
	w.Cadence = scheduleType.String
	w.Recurrence = spec.Recurrence()
	w.Location = r.location(tz)

	start, end, ok := parseRange(startTime, endTime)
	if !ok {
		// Unparseable time range: fail closed, same as missing schedule fields.
		w.Recurrence = nil
		return w, nil
	}
	w.Start, w.End = start, end
	return w, nil
}

// location resolves a row's timezone, falling back to the configured default
// when the column is NULL, empty, or not a loadable zone name.
func (r *WindowRepo) location(tz sql.NullString) *time.Location {
	if !tz.Valid || tz.String == "" {
		return r.DefaultLocation
	}
	loc, err := time.LoadLocation(tz.String)
	if err != nil {
		return r.DefaultLocation
	}
	return loc
}

// parseRange parses the optional time-of-day range. Both columns NULL means
// all-day; anything partial or unparseable reports !ok.
func parseRange(startTime, endTime sql.NullString) (*schedule.TimeOfDay, *schedule.TimeOfDay, bool) {
	startSet := startTime.Valid && startTime.String != ""
	endSet := endTime.Valid && endTime.String != ""
	if !startSet && !endSet {
		return nil, nil, true
	}
	if !startSet || !endSet {
		return nil, nil, false
	}
	start, err := schedule.ParseTimeOfDay(startTime.String)
	if err != nil {
		return nil, nil, false
	}
	end, err := schedule.ParseTimeOfDay(endTime.String)
	if err != nil {
		return nil, nil, false
	}
	return &start, &end, true
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
