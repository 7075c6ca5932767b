package dto

type CreateDeletionRequest struct {
	Type     string `json:"type" validate:"required,deletiontype"`
	TargetID int64  `json:"target_id" validate:"gt=0"`
	Reason   string `json:"reason" validate:"max=1000"`
}

type ResolveDeletionRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

type VerifyQRRequest struct {
	Code string `json:"qr_code_data" validate:"required,token"`
}

type RecordAttendanceRequest struct {
	UserID        int64  `json:"user_id" validate:"gt=0"`
	RequirementID int64  `json:"requirement_id" validate:"gt=0"`
	TimeSlotID    *int64 `json:"time_slot_id,omitempty"`
	Status        string `json:"attendance_status" validate:"attendancestatus"`
	Notes         string `json:"notes" validate:"max=1000"`
}

type RegisterMemberRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"role"`
}
