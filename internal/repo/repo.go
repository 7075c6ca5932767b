package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"clubhub/internal/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrNotPending      = errors.New("deletion request is not pending")
	ErrInvalidTimeSlot = errors.New("time slot does not belong to requirement or is inactive")
)

const uniqueViolation = "23505"

type Repository interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetRequirement(ctx context.Context, clubID, id int64) (*model.Requirement, error)

	CreateDeletionRequestTx(ctx context.Context, req *model.DeletionRequest) (int64, error)
	DeleteTargetTx(ctx context.Context, clubID int64, target model.DeletionTarget, resolverID int64) ([]model.DeletionRequest, error)
	CancelDeletionRequestTx(ctx context.Context, requestID int64, allow func(*model.DeletionRequest) error) (*model.DeletionRequest, error)
	ResolveDeletionRequestTx(ctx context.Context, clubID, requestID, resolverID int64, approve bool) ([]model.DeletionRequest, error)
	GetDeletionRequest(ctx context.Context, id int64) (*model.DeletionRequest, error)
	GetPendingDeletionRequest(ctx context.Context, clubID int64, target model.DeletionTarget) (*model.DeletionRequest, error)
	ListDeletionRequestsByRequester(ctx context.Context, userID int64) ([]model.DeletionRequest, error)
	ListPendingDeletionRequests(ctx context.Context, clubID int64) ([]model.DeletionRequest, error)

	GetOrCreateQRTx(ctx context.Context, clubID, userID int64, newCode func() string) (*model.QRCredential, error)
	RegenerateQRTx(ctx context.Context, clubID, userID int64, newCode func() string) (*model.QRCredential, error)
	FindUserByActiveQR(ctx context.Context, clubID int64, code string) (*model.User, error)

	RecordAttendanceTx(ctx context.Context, rec *model.AttendanceRecord, allow func(verifier *model.User) error) error
	ListTimeSlots(ctx context.Context, clubID, requirementID int64) ([]model.TimeSlot, error)
	ListAttendance(ctx context.Context, clubID, requirementID int64) ([]model.AttendanceRecord, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

// repository sends writes and reads that must observe the latest commit to
// db.Master. Only the list queries may be served by a replica.
type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := r.execFile(file); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Int("files", len(files)).Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

// MigrateDown applies rollbacks newest first so dependent tables go before
// the tables they reference.
func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, file := range files {
		if err := r.execFile(file); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Int("files", len(files)).Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) execFile(file string) error {
	sqlBytes, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	_, err = r.db.Master.ExecContext(context.Background(), string(sqlBytes))
	return err
}

// withTx runs fn inside a transaction on the master. Any error from fn
// rolls the transaction back and is returned unchanged.
func (r *repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound turns sql.ErrNoRows into ErrNotFound and wraps anything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

type scanner interface {
	Scan(dest ...any) error
}
