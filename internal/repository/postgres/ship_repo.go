package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/novadock/hangar/internal/domain/ship"
)

var _ ship.Repo = (*ShipRepo)(nil)

type ShipRepo struct {
	db *DB
}

func NewShipRepo(db *DB) *ShipRepo { return &ShipRepo{db: db} }

const (
	qShipInsert = `
INSERT INTO spaceships (id, name, platform)
VALUES ($1, $2, $3);`

	qShipByID = `
SELECT id, name, platform
FROM spaceships
WHERE id = $1;`

	qShipUpdate = `
UPDATE spaceships
SET name = $2, platform = $3
WHERE id = $1;`

	qShipDelete = `
DELETE FROM spaceships WHERE id = $1;`

	qShipList = `
SELECT id, name, platform
FROM spaceships
ORDER BY id
LIMIT $1 OFFSET $2;`

	qShipSearch = `
SELECT id, name, platform
FROM spaceships
WHERE name ILIKE '%' || $1 || '%'
ORDER BY id
LIMIT $2 OFFSET $3;`
)

func (r *ShipRepo) Create(ctx context.Context, s *ship.Spaceship) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qShipInsert, s.ID, s.Name, s.Platform); err != nil {
		if isUniqueViolation(err) {
			return ship.ErrExists
		}
		return fmt.Errorf("ship insert: %w", err)
	}
	return nil
}

func (r *ShipRepo) GetByID(ctx context.Context, id string) (*ship.Spaceship, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s ship.Spaceship
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qShipByID, id).
		Scan(&s.ID, &s.Name, &s.Platform); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ship.ErrNotFound
		}
		return nil, fmt.Errorf("ship by id: %w", err)
	}
	return &s, nil
}

func (r *ShipRepo) Update(ctx context.Context, s *ship.Spaceship) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qShipUpdate, s.ID, s.Name, s.Platform)
	if err != nil {
		return fmt.Errorf("ship update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ship.ErrNotFound
	}
	return nil
}

func (r *ShipRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qShipDelete, id)
	if err != nil {
		return fmt.Errorf("ship delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ship.ErrNotFound
	}
	return nil
}

func (r *ShipRepo) List(ctx context.Context, page, size int) ([]*ship.Spaceship, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qShipList, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("ship list: %w", err)
	}
	return scanShips(rows)
}

func (r *ShipRepo) SearchByName(ctx context.Context, name string, page, size int) ([]*ship.Spaceship, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qShipSearch, name, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("ship search: %w", err)
	}
	return scanShips(rows)
}

func scanShips(rows pgx.Rows) ([]*ship.Spaceship, error) {
	defer rows.Close()

	var out []*ship.Spaceship
	for rows.Next() {
		var s ship.Spaceship
		if err := rows.Scan(&s.ID, &s.Name, &s.Platform); err != nil {
			return nil, fmt.Errorf("scan ship: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ships: %w", err)
	}
	return out, nil
}
