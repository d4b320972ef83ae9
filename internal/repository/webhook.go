package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zestpay/gateway/internal/domain"
)

const webhookColumns = `id, merchant_id, event_type, payment_id, refund_id, order_id,
	status, attempt_count, max_attempts, next_attempt_at, response_status, error_message,
	created_at, updated_at`

// WebhookRepository persists outbound delivery jobs. Rows are the
// durable queue and the audit trail in one: status moves pending →
// delivered | failed and nothing is ever deleted.
type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, job *domain.WebhookJob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_logs (
			id, merchant_id, event_type, payment_id, refund_id, order_id,
			status, attempt_count, max_attempts, next_attempt_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.MerchantID, job.EventType, job.PaymentID, job.RefundID, job.OrderID,
		job.Status, job.AttemptCount, job.MaxAttempts, job.NextAttemptAt, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ClaimDue picks up to limit pending jobs whose next_attempt_at has
// passed, counts the attempt, and pushes next_attempt_at out by the
// lease. FOR UPDATE SKIP LOCKED keeps concurrent claimers off the
// same rows; the lease re-exposes jobs whose worker crashed
// mid-delivery, which is where the at-least-once guarantee comes
// from.
func (r *WebhookRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.WebhookJob, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ClaimDue: begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM webhook_logs
		WHERE status = $1 AND next_attempt_at <= now()
		ORDER BY next_attempt_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		domain.WebhookStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimDue: select: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ClaimDue: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("ClaimDue: rows: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	var jobs []domain.WebhookJob
	for _, id := range ids {
		row := tx.QueryRowContext(ctx,
			`UPDATE webhook_logs
			SET attempt_count = attempt_count + 1, next_attempt_at = now() + $1::interval, updated_at = now()
			WHERE id = $2
			RETURNING `+webhookColumns,
			leaseInterval(lease), id,
		)
		job, err := scanWebhookJob(row)
		if err != nil {
			return nil, fmt.Errorf("ClaimDue: claim %s: %w", id, err)
		}
		jobs = append(jobs, *job)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ClaimDue: commit: %w", err)
	}
	return jobs, nil
}

func (r *WebhookRepository) MarkDelivered(ctx context.Context, id string, responseStatus int) error {
	return r.finish(ctx, id, domain.WebhookStatusDelivered, &responseStatus, nil)
}

func (r *WebhookRepository) MarkFailed(ctx context.Context, id string, responseStatus *int, errorMessage string) error {
	return r.finish(ctx, id, domain.WebhookStatusFailed, responseStatus, &errorMessage)
}

// ScheduleRetry keeps the job pending and records the failure, moving
// next_attempt_at to the given time.
func (r *WebhookRepository) ScheduleRetry(ctx context.Context, id string, responseStatus *int, errorMessage string, nextAttemptAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE webhook_logs
		SET response_status = $1, error_message = $2, next_attempt_at = $3, updated_at = now()
		WHERE id = $4 AND status = $5`,
		responseStatus, errorMessage, nextAttemptAt, id, domain.WebhookStatusPending,
	)
	if err != nil {
		return fmt.Errorf("ScheduleRetry: %w", err)
	}
	return checkJobUpdate(res, "ScheduleRetry")
}

func (r *WebhookRepository) finish(ctx context.Context, id string, status domain.WebhookJobStatus, responseStatus *int, errorMessage *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE webhook_logs
		SET status = $1, response_status = $2, error_message = $3, updated_at = now()
		WHERE id = $4 AND status = $5`,
		status, responseStatus, errorMessage, id, domain.WebhookStatusPending,
	)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	return checkJobUpdate(res, "finish")
}

func (r *WebhookRepository) GetByID(ctx context.Context, id string) (*domain.WebhookJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhook_logs WHERE id = $1`, id,
	)
	job, err := scanWebhookJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return job, nil
}

func (r *WebhookRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WebhookJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhook_logs
		WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		merchantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByMerchant: %w", err)
	}
	defer rows.Close()

	var jobs []domain.WebhookJob
	for rows.Next() {
		job, err := scanWebhookJob(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByMerchant: scan: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByMerchant: rows: %w", err)
	}
	return jobs, nil
}

func (r *WebhookRepository) CountByMerchant(ctx context.Context, merchantID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM webhook_logs WHERE merchant_id = $1`, merchantID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("CountByMerchant: %w", err)
	}
	return total, nil
}

func checkJobUpdate(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrWebhookJobDone)
	}
	return nil
}

func leaseInterval(d time.Duration) string {
	return fmt.Sprintf("%d milliseconds", d.Milliseconds())
}

func scanWebhookJob(s scanner) (*domain.WebhookJob, error) {
	var job domain.WebhookJob
	err := s.Scan(
		&job.ID, &job.MerchantID, &job.EventType, &job.PaymentID, &job.RefundID, &job.OrderID,
		&job.Status, &job.AttemptCount, &job.MaxAttempts, &job.NextAttemptAt, &job.ResponseStatus, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
