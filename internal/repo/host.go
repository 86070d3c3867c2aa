package repo

import (
	"context"
	"database/sql"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
)

// HostRepo reads the host inventory. Hosts and groups are managed by the
// surrounding system; the silencing engine only needs lookups.
type HostRepo struct {
	DB *sql.DB
}

// NewHostRepo returns a new HostRepo.
func NewHostRepo(db *sql.DB) *HostRepo {
	return &HostRepo{DB: db}
}

// List returns all hosts ordered by hostname.
func (r *HostRepo) List(ctx context.Context) ([]models.Host, error) {
	query := `
		SELECT id, hostname, port, created_at
		FROM hosts
		ORDER BY hostname, port
	`
	rows, err := r.DB.QueryContext(ctx, query)
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

// GetByID returns one host by id, or nil when absent.
func (r *HostRepo) GetByID(ctx context.Context, id int) (*models.Host, error) {
	query := `
		SELECT id, hostname, port, created_at
		FROM hosts
		WHERE id = $1
	`
	h := &models.Host{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Hostname, &h.Port, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// GroupsFor returns the groups a host belongs to, ordered by tag.
func (r *HostRepo) GroupsFor(ctx context.Context, hostID int) ([]models.HostGroup, error) {
	query := `
		SELECT g.id, g.tag, g.created_at
		FROM host_groups g
		JOIN host_group_map hg ON hg.group_id = g.id
		WHERE hg.host_id = $1
		ORDER BY g.tag
	`
	rows, err := r.DB.QueryContext(ctx, query, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.HostGroup
	for rows.Next() {
		var g models.HostGroup
		if err := rows.Scan(&g.ID, &g.Tag, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}
