package repo

import (
	"context"
	"database/sql"
	"fmt"

	"clubhub/internal/model"
)

const userColumns = `id, club_id, full_name, email, role, created_at`

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.ClubID, &u.FullName, &u.Email, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.ParseRole(role)
	return &u, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.Master.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	query := `
		INSERT INTO users (club_id, full_name, email, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.Master.QueryRowContext(ctx, query, u.ClubID, u.FullName, u.Email, string(u.Role)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user: %w", ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return u.ID, nil
}

func (r *repository) GetRequirement(ctx context.Context, clubID, id int64) (*model.Requirement, error) {
	query := `SELECT id, club_id, name, kind FROM requirements WHERE id = $1 AND club_id = $2`

	var req model.Requirement
	if err := r.db.QueryRowContext(ctx, query, id, clubID).Scan(&req.ID, &req.ClubID, &req.Name, &req.Kind); err != nil {
		return nil, notFound(err, "requirement")
	}
	return &req, nil
}

// lockUser takes a row lock on a club member for the rest of tx.
func lockUser(ctx context.Context, tx *sql.Tx, clubID, userID int64, mode string) (*model.User, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND club_id = $2 `+mode, userID, clubID)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}
