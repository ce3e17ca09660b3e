package record

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
)

// NewScan is what a student submits to mark attendance: the code of an active session.
type NewScan struct {
	Code string `json:"code" validate:"required"`
}

func (ns *NewScan) Validate(validate *validator.Validate) error {
	ns.Code = core.CleanString(ns.Code)
	return validate.Struct(ns)
}

// NewMark is an attendance entry made by an administrator.
// Status is computed from the session start time when empty.
type NewMark struct {
	MatricNumber string            `json:"matric_number" validate:"required,matric"`
	Status       attendance.Status `json:"status" validate:"omitempty,oneof=present late absent"`
}

func (nm *NewMark) Validate(validate *validator.Validate) error {
	nm.MatricNumber = strings.ToUpper(core.CleanString(nm.MatricNumber))
	nm.Status = attendance.Status(core.CleanString(string(nm.Status), true /* lower */))
	return validate.Struct(nm)
}

type QueryFilter struct {
	SessionID string `query:"session_id"`
	StudentID string `query:"student_id"`
	CourseID  string `query:"course_id"`
}
