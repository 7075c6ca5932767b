package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator"

	"clubhub/internal/model"
)

var (
	global     *validator.Validate
	tokenRegex = regexp.MustCompile(`^\S+$`)
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("deletiontype", validateDeletionType)
	_ = v.RegisterValidation("attendancestatus", validateAttendanceStatus)
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("token", validateToken)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func validateDeletionType(fl validator.FieldLevel) bool {
	_, err := model.ParseDeletionType(fl.Field().String())
	return err == nil
}

// Empty values pass; the service fills in defaults.
func validateAttendanceStatus(fl validator.FieldLevel) bool {
	s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	return s == "" || model.AttendanceStatus(s).Valid()
}

func validateRole(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.TrimSpace(s) == "" || model.ParseRole(s).Known()
}

func validateToken(fl validator.FieldLevel) bool {
	return tokenRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "token":
		msg = ErrInvalidFormat
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "deletiontype":
		msg = "Type must be user, requirement or transaction"
	case "attendancestatus":
		msg = "Status must be present, late or excused"
	case "role":
		msg = "Unknown role"
	case "email":
		msg = ErrInvalidFormat
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
