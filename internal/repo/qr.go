package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubhub/internal/model"
)

func (r *repository) GetOrCreateQRTx(ctx context.Context, clubID, userID int64, newCode func() string) (*model.QRCredential, error) {
	var cred *model.QRCredential
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockUser(ctx, tx, clubID, userID, "FOR UPDATE"); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `
			SELECT qr_id, user_id, qr_code_data, generated_at, is_active
			FROM qr_codes
			WHERE user_id = $1 AND is_active
		`, userID)
		var err error
		cred, err = scanQR(row)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to load qr credential: %w", err)
		}

		cred, err = insertQR(ctx, tx, userID, newCode())
		return err
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *repository) RegenerateQRTx(ctx context.Context, clubID, userID int64, newCode func() string) (*model.QRCredential, error) {
	var cred *model.QRCredential
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockUser(ctx, tx, clubID, userID, "FOR UPDATE"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE qr_codes SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID); err != nil {
			return fmt.Errorf("failed to deactivate qr credential: %w", err)
		}

		var err error
		cred, err = insertQR(ctx, tx, userID, newCode())
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().Int64("user_id", userID).Int64("qr_id", cred.ID).Msg("qr credential regenerated")
	return cred, nil
}

func (r *repository) FindUserByActiveQR(ctx context.Context, clubID int64, code string) (*model.User, error) {
	row := r.db.Master.QueryRowContext(ctx, `
		SELECT u.id, u.club_id, u.full_name, u.email, u.role, u.created_at
		FROM qr_codes q
		JOIN users u ON u.id = q.user_id
		WHERE q.qr_code_data = $1 AND q.is_active AND u.club_id = $2
	`, code, clubID)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "qr credential")
	}
	return u, nil
}

func scanQR(row scanner) (*model.QRCredential, error) {
	var q model.QRCredential
	if err := row.Scan(&q.ID, &q.UserID, &q.Code, &q.GeneratedAt, &q.IsActive); err != nil {
		return nil, err
	}
	return &q, nil
}

func insertQR(ctx context.Context, tx *sql.Tx, userID int64, code string) (*model.QRCredential, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO qr_codes (user_id, qr_code_data, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING qr_id, user_id, qr_code_data, generated_at, is_active
	`, userID, code)
	cred, err := scanQR(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("qr credential: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert qr credential: %w", err)
	}
	return cred, nil
}
