package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/admin-backoffice/internal/domain"
)

// SessionRepository handles persistence for signed-token sessions.
type SessionRepository interface {
	// CreateReplacing deletes any session for (staff, user agent) and
	// inserts the new row in one transaction, keeping the at-most-one
	// session invariant under concurrent sign-ins.
	CreateReplacing(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteAllForStaff clears every session the staff member holds,
	// across all user agents.
	DeleteAllForStaff(ctx context.Context, staffID string) error
	Delete(ctx context.Context, id string) error
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) CreateReplacing(ctx context.Context, session *domain.Session) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const del = `DELETE FROM sessions WHERE staff_id=$1 AND user_agent=$2`
		if _, err := tx.Exec(ctx, del, session.StaffID, session.UserAgent); err != nil {
			return err
		}

		const ins = `
            INSERT INTO sessions (id, staff_id, token, user_agent, ip_address, expires_at)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING created_at, updated_at`
		return tx.QueryRow(ctx, ins,
			session.ID,
			session.StaffID,
			session.Token,
			session.UserAgent,
			session.IPAddress,
			session.ExpiresAt,
		).Scan(&session.CreatedAt, &session.UpdatedAt)
	})
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	const query = `
        SELECT id, staff_id, token, user_agent, ip_address, expires_at, created_at, updated_at
        FROM sessions WHERE token=$1`

	var session domain.Session
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.StaffID,
		&session.Token,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	const query = `UPDATE sessions SET expires_at=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token=$1`
	cmd, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) DeleteAllForStaff(ctx context.Context, staffID string) error {
	const query = `DELETE FROM sessions WHERE staff_id=$1`
	_, err := r.pool.Exec(ctx, query, staffID)
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
