package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/routinez-api/internal/models"
)

// keepSnapshots bounds the archive; older rows are pruned on save.
const keepSnapshots = 20

// SnapshotRepository persists raw catalog snapshots so the service can
// keep answering after an upstream outage. Computed routines are never
// stored here.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

type snapshotRow struct {
	ID           string    `db:"id"`
	FetchedAt    time.Time `db:"fetched_at"`
	SectionCount int       `db:"section_count"`
	Payload      []byte    `db:"payload"`
}

// Save inserts the snapshot payload and prunes rows beyond the
// retention window.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *models.Snapshot) error {
	payload, err := json.Marshal(snapshot.Sections)
	if err != nil {
		return fmt.Errorf("marshal snapshot payload: %w", err)
	}

	const insert = `INSERT INTO catalog_snapshots (id, fetched_at, section_count, payload)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, insert,
		uuid.NewString(), snapshot.FetchedAt, len(snapshot.Sections), payload); err != nil {
		return fmt.Errorf("insert catalog snapshot: %w", err)
	}

	const prune = `DELETE FROM catalog_snapshots WHERE id NOT IN (
		SELECT id FROM catalog_snapshots ORDER BY fetched_at DESC LIMIT $1)`
	if _, err := r.db.ExecContext(ctx, prune, keepSnapshots); err != nil {
		return fmt.Errorf("prune catalog snapshots: %w", err)
	}
	return nil
}

// Latest returns the most recently fetched snapshot, or nil when the
// archive is empty.
func (r *SnapshotRepository) Latest(ctx context.Context) (*models.Snapshot, error) {
	const query = `SELECT id, fetched_at, section_count, payload
		FROM catalog_snapshots ORDER BY fetched_at DESC LIMIT 1`

	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest catalog snapshot: %w", err)
	}

	var sections []models.Section
	if err := json.Unmarshal(row.Payload, &sections); err != nil {
		return nil, fmt.Errorf("unmarshal archived snapshot %s: %w", row.ID, err)
	}
	return models.NewSnapshot(row.FetchedAt, sections), nil
}
