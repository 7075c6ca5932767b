package model

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	ClubID    int64     `db:"club_id" json:"club_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email,omitempty" json:"email,omitempty"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type DeletionStatus string

const (
	DeletionPending  DeletionStatus = "pending"
	DeletionApproved DeletionStatus = "approved"
	DeletionDenied   DeletionStatus = "denied"
)

type DeletionRequest struct {
	ID          int64          `db:"id" json:"id"`
	ClubID      int64          `db:"club_id" json:"club_id"`
	Type        DeletionType   `db:"type" json:"type"`
	TargetID    int64          `db:"target_id" json:"target_id"`
	Reason      string         `db:"reason" json:"reason"`
	RequestedBy int64          `db:"requested_by" json:"requested_by"`
	RequestedAt time.Time      `db:"requested_at" json:"requested_at"`
	Status      DeletionStatus `db:"status" json:"status"`
	ResolvedBy  *int64         `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Target rebuilds the typed target the request points at.
func (r *DeletionRequest) Target() (DeletionTarget, error) {
	return NewDeletionTarget(r.Type, r.TargetID)
}

type QRCredential struct {
	ID          int64     `db:"qr_id" json:"qr_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Code        string    `db:"qr_code_data" json:"qr_code_data"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
	IsActive    bool      `db:"is_active" json:"is_active"`
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

type AttendanceRecord struct {
	ID            int64            `db:"attendance_id" json:"attendance_id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	RequirementID int64            `db:"requirement_id" json:"requirement_id"`
	TimeSlotID    *int64           `db:"time_slot_id" json:"time_slot_id,omitempty"`
	VerifiedBy    int64            `db:"verified_by" json:"verified_by"`
	ClubID        int64            `db:"club_id" json:"club_id"`
	ScanDatetime  time.Time        `db:"scan_datetime" json:"scan_datetime"`
	Status        AttendanceStatus `db:"attendance_status" json:"attendance_status"`
	Notes         string           `db:"notes" json:"notes,omitempty"`
}

type TimeSlot struct {
	ID            int64     `db:"slot_id" json:"slot_id"`
	RequirementID int64     `db:"requirement_id" json:"requirement_id"`
	Name          string    `db:"slot_name" json:"slot_name"`
	StartTime     string    `db:"start_time" json:"start_time"`
	EndTime       string    `db:"end_time" json:"end_time"`
	Date          time.Time `db:"date" json:"date"`
	IsActive      bool      `db:"is_active" json:"is_active"`
}

type RequirementKind string

const (
	RequirementEvent    RequirementKind = "event"
	RequirementActivity RequirementKind = "activity"
	RequirementFee      RequirementKind = "fee"
)

type Requirement struct {
	ID     int64           `db:"id" json:"id"`
	ClubID int64           `db:"club_id" json:"club_id"`
	Name   string          `db:"name" json:"name"`
	Kind   RequirementKind `db:"kind" json:"kind"`
}
