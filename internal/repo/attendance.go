package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubhub/internal/model"
)

func (r *repository) RecordAttendanceTx(ctx context.Context, rec *model.AttendanceRecord, allow func(verifier *model.User) error) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		verifier, err := lockUser(ctx, tx, rec.ClubID, rec.VerifiedBy, "FOR SHARE")
		if err != nil {
			return err
		}
		if err := allow(verifier); err != nil {
			return err
		}

		if _, err := lockUser(ctx, tx, rec.ClubID, rec.UserID, "FOR SHARE"); err != nil {
			return err
		}

		var reqID int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM requirements WHERE id = $1 AND club_id = $2 FOR SHARE`,
			rec.RequirementID, rec.ClubID).Scan(&reqID)
		if err != nil {
			return notFound(err, "requirement")
		}

		if rec.TimeSlotID != nil {
			var active bool
			err = tx.QueryRowContext(ctx,
				`SELECT is_active FROM time_slots WHERE slot_id = $1 AND requirement_id = $2`,
				*rec.TimeSlotID, rec.RequirementID).Scan(&active)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
				return ErrInvalidTimeSlot
			}
			if err != nil {
				return fmt.Errorf("failed to load time slot: %w", err)
			}
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO attendance (user_id, requirement_id, time_slot_id, verified_by, club_id, attendance_status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING attendance_id, scan_datetime
		`, rec.UserID, rec.RequirementID, rec.TimeSlotID, rec.VerifiedBy, rec.ClubID, string(rec.Status), rec.Notes).
			Scan(&rec.ID, &rec.ScanDatetime)
		if err != nil {
			return fmt.Errorf("failed to insert attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Int64("attendance_id", rec.ID).
		Int64("user_id", rec.UserID).
		Int64("requirement_id", rec.RequirementID).
		Int64("verified_by", rec.VerifiedBy).
		Msg("attendance recorded")
	return nil
}

func (r *repository) ListTimeSlots(ctx context.Context, clubID, requirementID int64) ([]model.TimeSlot, error) {
	query := `
		SELECT s.slot_id, s.requirement_id, s.slot_name,
		       to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
		       s.date, s.is_active
		FROM time_slots s
		JOIN requirements q ON q.id = s.requirement_id
		WHERE s.requirement_id = $1 AND q.club_id = $2
		ORDER BY s.date ASC, s.start_time ASC
	`
	rows, err := r.db.QueryContext(ctx, query, requirementID, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get time slots: %w", err)
	}
	defer rows.Close()

	slots := make([]model.TimeSlot, 0)
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.RequirementID, &s.Name, &s.StartTime, &s.EndTime, &s.Date, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *repository) ListAttendance(ctx context.Context, clubID, requirementID int64) ([]model.AttendanceRecord, error) {
	query := `
		SELECT attendance_id, user_id, requirement_id, time_slot_id, verified_by,
		       club_id, scan_datetime, attendance_status, notes
		FROM attendance
		WHERE requirement_id = $1 AND club_id = $2
		ORDER BY scan_datetime DESC, attendance_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, requirementID, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	defer rows.Close()

	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		var a model.AttendanceRecord
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.RequirementID, &a.TimeSlotID, &a.VerifiedBy,
			&a.ClubID, &a.ScanDatetime, &a.Status, &a.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
