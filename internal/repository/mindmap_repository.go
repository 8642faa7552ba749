package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// MindMap mirrors the 'mapas_mentales' table. Data is the raw document as
// the frontend serialized it; the repository never interprets it. JSON tags
// keep the wire names the frontend expects.
type MindMap struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"usuario_id"`
	Title     string    `json:"titulo"`
	Data      string    `json:"datos_json"`
	CreatedAt time.Time `json:"fecha_creacion"`
	UpdatedAt time.Time `json:"ultima_modificacion"`
}

// MindMapRepo encapsulates all mind-map queries. Every statement filters by
// usuario_id, so ownership isolation is enforced in SQL rather than in the
// handlers.
type MindMapRepo struct {
	db *sql.DB
}

// NewMindMapRepo constructs a MindMapRepo with the provided DB handle.
func NewMindMapRepo(db *sql.DB) *MindMapRepo {
	return &MindMapRepo{db: db}
}

// Create inserts a new map and returns the generated id.
func (r *MindMapRepo) Create(ctx context.Context, userID uint64, title, data string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO mapas_mentales (usuario_id, titulo, datos_json) VALUES (?,?,?)",
		userID, title, data)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByIDAndOwner fetches a map only if it belongs to the given user,
// returning ErrMapNotFound otherwise.
func (r *MindMapRepo) GetByIDAndOwner(ctx context.Context, id, userID uint64) (MindMap, error) {
	var m MindMap
	err := r.db.QueryRowContext(ctx,
		`SELECT id, usuario_id, titulo, datos_json, fecha_creacion, ultima_modificacion
		 FROM mapas_mentales WHERE id=? AND usuario_id=? LIMIT 1`,
		id, userID).Scan(&m.ID, &m.UserID, &m.Title, &m.Data, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return MindMap{}, ErrMapNotFound
	}
	return m, err
}

// ListByOwner returns all maps of a user, most recently modified first.
func (r *MindMapRepo) ListByOwner(ctx context.Context, userID uint64) ([]MindMap, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, usuario_id, titulo, datos_json, fecha_creacion, ultima_modificacion
		 FROM mapas_mentales WHERE usuario_id=? ORDER BY ultima_modificacion DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	maps := make([]MindMap, 0)
	for rows.Next() {
		var m MindMap
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Data, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

// Update rewrites title and data of an owned map and bumps the modification
// timestamp. ErrMapNotFound covers both a missing id and a foreign owner.
func (r *MindMapRepo) Update(ctx context.Context, id, userID uint64, title, data string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mapas_mentales SET titulo=?, datos_json=?, ultima_modificacion=CURRENT_TIMESTAMP
		 WHERE id=? AND usuario_id=?`,
		title, data, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMapNotFound
	}
	return nil
}

// Delete removes an owned map.
func (r *MindMapRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM mapas_mentales WHERE id=? AND usuario_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMapNotFound
	}
	return nil
}
