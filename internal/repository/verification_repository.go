package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/admin-backoffice/internal/domain"
)

// VerificationRepository handles persistence for one-time-code challenges.
type VerificationRepository interface {
	// CreateReplacing deletes any challenge for (staff, binding) and
	// inserts the new row, then invokes inTx inside the same
	// transaction; an inTx failure rolls back the issuance.
	CreateReplacing(ctx context.Context, verification *domain.Verification, inTx func(context.Context) error) error
	GetByBinding(ctx context.Context, staffID string, binding domain.Binding) (*domain.Verification, error)
	MarkVerified(ctx context.Context, id string, resetExpiresAt time.Time) error
	// ConsumeForPasswordReset updates the staff password hash and
	// deletes the challenge row in one transaction.
	ConsumeForPasswordReset(ctx context.Context, id, staffID, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository instantiates the repository.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

func (r *verificationRepository) CreateReplacing(ctx context.Context, verification *domain.Verification, inTx func(context.Context) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const del = `DELETE FROM verifications WHERE staff_id=$1 AND user_agent=$2 AND ip_address=$3`
		if _, err := tx.Exec(ctx, del, verification.StaffID, verification.UserAgent, verification.IPAddress); err != nil {
			return err
		}

		const ins = `
            INSERT INTO verifications (id, staff_id, user_agent, ip_address, code_hash, code_expires_at)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING created_at, updated_at`
		if err := tx.QueryRow(ctx, ins,
			verification.ID,
			verification.StaffID,
			verification.UserAgent,
			verification.IPAddress,
			verification.CodeHash,
			verification.CodeExpiresAt,
		).Scan(&verification.CreatedAt, &verification.UpdatedAt); err != nil {
			return err
		}

		if inTx != nil {
			return inTx(ctx)
		}
		return nil
	})
}

func (r *verificationRepository) GetByBinding(ctx context.Context, staffID string, binding domain.Binding) (*domain.Verification, error) {
	const query = `
        SELECT id, staff_id, user_agent, ip_address, code_hash, code_expires_at, is_verified, reset_expires_at, created_at, updated_at
        FROM verifications WHERE staff_id=$1 AND user_agent=$2 AND ip_address=$3`

	var verification domain.Verification
	if err := r.pool.QueryRow(ctx, query, staffID, binding.UserAgent, binding.IPAddress).Scan(
		&verification.ID,
		&verification.StaffID,
		&verification.UserAgent,
		&verification.IPAddress,
		&verification.CodeHash,
		&verification.CodeExpiresAt,
		&verification.IsVerifiedCode,
		&verification.ResetExpiresAt,
		&verification.CreatedAt,
		&verification.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *verificationRepository) MarkVerified(ctx context.Context, id string, resetExpiresAt time.Time) error {
	const query = `
        UPDATE verifications SET is_verified=TRUE, reset_expires_at=$1, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, resetExpiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *verificationRepository) ConsumeForPasswordReset(ctx context.Context, id, staffID, passwordHash string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const update = `UPDATE staffs SET password_hash=$1, updated_at=NOW() WHERE id=$2`
		cmd, err := tx.Exec(ctx, update, passwordHash, staffID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		const del = `DELETE FROM verifications WHERE id=$1`
		_, err = tx.Exec(ctx, del, id)
		return err
	})
}

func (r *verificationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM verifications WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
