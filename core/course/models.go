package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
)

// Semesters
const (
	FirstSemester  = "First Semester"
	SecondSemester = "Second Semester"
)

type Course struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"` // e.g. COM 101
	Title      string    `json:"title"`
	CreditUnit int       `json:"credit_unit"`
	Lecturer   string    `json:"lecturer"`
	Department string    `json:"department"`
	Level      string    `json:"level"`
	Semester   string    `json:"semester"`
	Session    string    `json:"session"`    // academic session, e.g. 2024/2025
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// CleanCode normalizes a course code the way it is stored: upper-cased with single spaces.
func CleanCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}

type NewCourse struct {
	Code       string `json:"code" validate:"required"`
	Title      string `json:"title" validate:"required"`
	CreditUnit int    `json:"credit_unit" validate:"required,min=1,max=10"`
	Lecturer   string `json:"lecturer"`
	Department string `json:"department" validate:"required"`
	Level      string `json:"level" validate:"required,level"`
	Semester   string `json:"semester" validate:"required,oneof='First Semester' 'Second Semester'"`
	Session    string `json:"session"`
}

func (nc *NewCourse) Validate(validate *validator.Validate, svc *Service) error {
	nc.Code = CleanCode(nc.Code)
	nc.Title = core.CleanString(nc.Title)
	nc.Lecturer = core.CleanString(nc.Lecturer)
	nc.Department = core.CleanString(nc.Department)
	nc.Level = strings.ToUpper(core.CleanString(nc.Level))
	nc.Semester = core.CleanString(nc.Semester)
	nc.Session = core.CleanString(nc.Session)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Empty fields keep their current value.
type UpdateCourse struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	CreditUnit int    `json:"credit_unit" validate:"omitempty,min=1,max=10"`
	Lecturer   string `json:"lecturer"`
	Department string `json:"department"`
	Level      string `json:"level" validate:"omitempty,level"`
	Semester   string `json:"semester" validate:"omitempty,oneof='First Semester' 'Second Semester'"`
	Session    string `json:"session"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate, svc *Service) error {
	keep := func(val, origVal string) string {
		if val != "" {
			return val
		}
		return origVal
	}
	uc.Code = keep(CleanCode(uc.Code), orig.Code)
	uc.Title = keep(core.CleanString(uc.Title), orig.Title)
	uc.Lecturer = keep(core.CleanString(uc.Lecturer), orig.Lecturer)
	uc.Department = keep(core.CleanString(uc.Department), orig.Department)
	uc.Level = keep(strings.ToUpper(core.CleanString(uc.Level)), orig.Level)
	uc.Semester = keep(core.CleanString(uc.Semester), orig.Semester)
	uc.Session = keep(core.CleanString(uc.Session), orig.Session)
	if uc.CreditUnit == 0 {
		uc.CreditUnit = orig.CreditUnit
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckUniqueness(uc.Code, orig)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Level      string `query:"level"`
	Department string `query:"department"`
	Semester   string `query:"semester"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = strings.ToUpper(core.CleanString(qf.Level))
	qf.Department = core.CleanString(qf.Department)
	qf.Semester = core.CleanString(qf.Semester)
}

// GetFilter finds a single Course; the first non-empty field wins.
type GetFilter struct {
	ID   string
	Code string
}
