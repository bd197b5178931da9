package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/fencing-tableau/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session id already exists")
	ErrSessionCorrupt  = errors.New("stored session document is unreadable")
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, limit, offset int) ([]models.SessionSummary, error)
	Update(ctx context.Context, exec SQLExecutor, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSessionRepository) Create(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}

	query := `
		INSERT INTO fencing_sessions (id, title, stage, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query, s.ID, s.Title, s.Stage, data, s.CreatedAt, s.UpdatedAt)
	return handleSessionError(err)
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT data FROM fencing_sessions WHERE id = $1`

	var data []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return decodeSession(data)
}

func (r *postgresSessionRepository) List(ctx context.Context, limit, offset int) ([]models.SessionSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT data FROM fencing_sessions ORDER BY updated_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.SessionSummary, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s, err := decodeSession(data)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s.Summary())
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during session rows iteration: %w", err)
	}
	return summaries, nil
}

func (r *postgresSessionRepository) Update(ctx context.Context, exec SQLExecutor, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}

	query := `
		UPDATE fencing_sessions
		SET title = $2, stage = $3, data = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, s.ID, s.Title, s.Stage, data, s.UpdatedAt)
	if err != nil {
		return handleSessionError(err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func (r *postgresSessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fencing_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func decodeSession(data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	return &s, nil
}

func handleSessionError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrSessionConflict
		case "22P02", "22032":
			return fmt.Errorf("%w: %s", ErrSessionCorrupt, pqErr.Message)
		}
	}
	return err
}
