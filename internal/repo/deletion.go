package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"clubhub/internal/model"
)

const deletionColumns = `id, club_id, type, target_id, reason, requested_by, requested_at, status, resolved_by, resolved_at`

func scanDeletionRequest(row scanner) (*model.DeletionRequest, error) {
	var d model.DeletionRequest
	err := row.Scan(
		&d.ID, &d.ClubID, &d.Type, &d.TargetID, &d.Reason,
		&d.RequestedBy, &d.RequestedAt, &d.Status, &d.ResolvedBy, &d.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) CreateDeletionRequestTx(ctx context.Context, req *model.DeletionRequest) (int64, error) {
	target, err := req.Target()
	if err != nil {
		return 0, err
	}

	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockTarget(ctx, tx, req.ClubID, target); err != nil {
			return err
		}

		var pending bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM deletion_requests
				WHERE type = $1 AND target_id = $2 AND status = 'pending'
			)
		`, string(req.Type), req.TargetID).Scan(&pending)
		if err != nil {
			return fmt.Errorf("failed to check pending deletion request: %w", err)
		}
		if pending {
			return fmt.Errorf("deletion request: %w", ErrConflict)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO deletion_requests (club_id, type, target_id, reason, requested_by, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
			RETURNING id, requested_at, status
		`, req.ClubID, string(req.Type), req.TargetID, req.Reason, req.RequestedBy).
			Scan(&req.ID, &req.RequestedAt, &req.Status)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("deletion request: %w", ErrConflict)
			}
			return fmt.Errorf("failed to create deletion request: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return req.ID, nil
}

func (r *repository) DeleteTargetTx(ctx context.Context, clubID int64, target model.DeletionTarget, resolverID int64) ([]model.DeletionRequest, error) {
	var closed []model.DeletionRequest
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockTarget(ctx, tx, clubID, target); err != nil {
			return err
		}
		var err error
		closed, err = deleteAndClose(ctx, tx, target, resolverID)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("type", string(target.Kind())).
		Int64("target_id", target.ID()).
		Int("closed_requests", len(closed)).
		Msg("target deleted")
	return closed, nil
}

func (r *repository) CancelDeletionRequestTx(ctx context.Context, requestID int64, allow func(*model.DeletionRequest) error) (*model.DeletionRequest, error) {
	var req *model.DeletionRequest
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+deletionColumns+` FROM deletion_requests WHERE id = $1 FOR UPDATE`, requestID)
		var err error
		if req, err = scanDeletionRequest(row); err != nil {
			return notFound(err, "deletion request")
		}
		if err := allow(req); err != nil {
			return err
		}
		if req.Status != model.DeletionPending {
			return ErrNotPending
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM deletion_requests WHERE id = $1`, requestID); err != nil {
			return fmt.Errorf("failed to cancel deletion request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *repository) ResolveDeletionRequestTx(ctx context.Context, clubID, requestID, resolverID int64, approve bool) ([]model.DeletionRequest, error) {
	var closed []model.DeletionRequest
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+deletionColumns+` FROM deletion_requests WHERE id = $1 AND club_id = $2 FOR UPDATE`,
			requestID, clubID)
		req, err := scanDeletionRequest(row)
		if err != nil {
			return notFound(err, "deletion request")
		}
		if req.Status != model.DeletionPending {
			return ErrNotPending
		}

		if !approve {
			closed, err = closePending(ctx, tx, req.Type, []int64{req.TargetID}, model.DeletionDenied, resolverID)
			return err
		}

		target, err := req.Target()
		if err != nil {
			return err
		}
		err = lockTarget(ctx, tx, clubID, target)
		switch {
		case errors.Is(err, ErrNotFound):
			// Already gone; the request is still approved.
			closed, err = closePending(ctx, tx, req.Type, []int64{req.TargetID}, model.DeletionApproved, resolverID)
			return err
		case err != nil:
			return err
		}
		closed, err = deleteAndClose(ctx, tx, target, resolverID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (r *repository) GetDeletionRequest(ctx context.Context, id int64) (*model.DeletionRequest, error) {
	row := r.db.Master.QueryRowContext(ctx, `SELECT `+deletionColumns+` FROM deletion_requests WHERE id = $1`, id)
	req, err := scanDeletionRequest(row)
	if err != nil {
		return nil, notFound(err, "deletion request")
	}
	return req, nil
}

func (r *repository) GetPendingDeletionRequest(ctx context.Context, clubID int64, target model.DeletionTarget) (*model.DeletionRequest, error) {
	row := r.db.Master.QueryRowContext(ctx, `
		SELECT `+deletionColumns+`
		FROM deletion_requests
		WHERE club_id = $1 AND type = $2 AND target_id = $3 AND status = 'pending'
	`, clubID, string(target.Kind()), target.ID())
	req, err := scanDeletionRequest(row)
	if err != nil {
		return nil, notFound(err, "deletion request")
	}
	return req, nil
}

func (r *repository) ListDeletionRequestsByRequester(ctx context.Context, userID int64) ([]model.DeletionRequest, error) {
	return r.queryDeletionRequests(ctx, `
		SELECT `+deletionColumns+`
		FROM deletion_requests
		WHERE requested_by = $1
		ORDER BY requested_at DESC, id DESC
	`, userID)
}

func (r *repository) ListPendingDeletionRequests(ctx context.Context, clubID int64) ([]model.DeletionRequest, error) {
	return r.queryDeletionRequests(ctx, `
		SELECT `+deletionColumns+`
		FROM deletion_requests
		WHERE club_id = $1 AND status = 'pending'
		ORDER BY requested_at ASC, id ASC
	`, clubID)
}

func (r *repository) queryDeletionRequests(ctx context.Context, query string, args ...any) ([]model.DeletionRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion requests: %w", err)
	}
	defer rows.Close()

	reqs := make([]model.DeletionRequest, 0)
	for rows.Next() {
		req, err := scanDeletionRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deletion request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

// lockTarget verifies the target exists in the club and locks its row.
func lockTarget(ctx context.Context, tx *sql.Tx, clubID int64, target model.DeletionTarget) error {
	var query string
	switch target.(type) {
	case model.UserTarget:
		query = `SELECT id FROM users WHERE id = $1 AND club_id = $2 FOR UPDATE`
	case model.RequirementTarget:
		query = `SELECT id FROM requirements WHERE id = $1 AND club_id = $2 FOR UPDATE`
	case model.TransactionTarget:
		query = `SELECT id FROM transactions WHERE id = $1 AND club_id = $2 FOR UPDATE`
	default:
		return fmt.Errorf("unsupported deletion target %T", target)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, target.ID(), clubID).Scan(&id); err != nil {
		return notFound(err, string(target.Kind()))
	}
	return nil
}

// deleteAndClose removes the target with its dependents and approves every
// pending request that pointed at something removed.
func deleteAndClose(ctx context.Context, tx *sql.Tx, target model.DeletionTarget, resolverID int64) ([]model.DeletionRequest, error) {
	removedTxns, err := cascadeDelete(ctx, tx, target)
	if err != nil {
		return nil, err
	}

	closed, err := closePending(ctx, tx, target.Kind(), []int64{target.ID()}, model.DeletionApproved, resolverID)
	if err != nil {
		return nil, err
	}
	if len(removedTxns) > 0 {
		more, err := closePending(ctx, tx, model.DeletionTypeTransaction, removedTxns, model.DeletionApproved, resolverID)
		if err != nil {
			return nil, err
		}
		closed = append(closed, more...)
	}
	return closed, nil
}

// cascadeDelete deletes the target row and its dependents. It returns the
// ids of transactions removed along the way.
func cascadeDelete(ctx context.Context, tx *sql.Tx, target model.DeletionTarget) ([]int64, error) {
	switch t := target.(type) {
	case model.UserTarget:
		txns, err := deleteReturningIDs(ctx, tx, `DELETE FROM transactions WHERE user_id = $1 RETURNING id`, t.UserID)
		if err != nil {
			return nil, err
		}
		err = execAll(ctx, tx, t.UserID,
			`DELETE FROM attendance WHERE user_id = $1`,
			`DELETE FROM qr_codes WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		)
		return txns, err

	case model.RequirementTarget:
		txns, err := deleteReturningIDs(ctx, tx, `DELETE FROM transactions WHERE requirement_id = $1 RETURNING id`, t.RequirementID)
		if err != nil {
			return nil, err
		}
		err = execAll(ctx, tx, t.RequirementID,
			`DELETE FROM attendance WHERE requirement_id = $1`,
			`DELETE FROM time_slots WHERE requirement_id = $1`,
			`DELETE FROM requirements WHERE id = $1`,
		)
		return txns, err

	case model.TransactionTarget:
		return nil, execAll(ctx, tx, t.TransactionID, `DELETE FROM transactions WHERE id = $1`)
	}
	return nil, fmt.Errorf("unsupported deletion target %T", target)
}

func closePending(ctx context.Context, tx *sql.Tx, kind model.DeletionType, targetIDs []int64, status model.DeletionStatus, resolverID int64) ([]model.DeletionRequest, error) {
	rows, err := tx.QueryContext(ctx, `
		UPDATE deletion_requests
		SET status = $1, resolved_by = $2, resolved_at = NOW()
		WHERE type = $3 AND target_id = ANY($4) AND status = 'pending'
		RETURNING `+deletionColumns,
		string(status), resolverID, string(kind), pq.Array(targetIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deletion requests: %w", err)
	}
	defer rows.Close()

	closed := make([]model.DeletionRequest, 0)
	for rows.Next() {
		req, err := scanDeletionRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deletion request: %w", err)
		}
		closed = append(closed, *req)
	}
	return closed, rows.Err()
}

func deleteReturningIDs(ctx context.Context, tx *sql.Tx, query string, arg int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("cascade delete failed: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("cascade delete scan failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func execAll(ctx context.Context, tx *sql.Tx, arg int64, queries ...string) error {
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q, arg); err != nil {
			return fmt.Errorf("cascade delete failed: %w", err)
		}
	}
	return nil
}
