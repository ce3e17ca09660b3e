package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sajili/core"
)

// Levels
const (
	LevelND1  = "ND1"
	LevelND2  = "ND2"
	LevelHND1 = "HND1"
	LevelHND2 = "HND2"
)

var Levels = []string{LevelND1, LevelND2, LevelHND1, LevelHND2}

const DefaultDepartment = "Computer Science"

type Student struct {
	ID           string    `json:"id"`
	MatricNumber string    `json:"matric_number"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	Level        string    `json:"level"`
	PhoneNumber  string    `json:"phone_number"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// CleanMatricNumber normalizes a matric number the way it is stored.
func CleanMatricNumber(matric string) string {
	return strings.ToUpper(core.CleanString(matric))
}

type NewStudent struct {
	MatricNumber string `json:"matric_number" validate:"required,matric"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Department   string `json:"department"`
	Level        string `json:"level" validate:"required,level"`
	PhoneNumber  string `json:"phone_number"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc *Service) error {
	ns.MatricNumber = CleanMatricNumber(ns.MatricNumber)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Department = core.CleanString(ns.Department)
	if ns.Department == "" {
		ns.Department = DefaultDepartment
	}
	ns.Level = strings.ToUpper(core.CleanString(ns.Level))
	ns.PhoneNumber = core.CleanString(ns.PhoneNumber)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.MatricNumber)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	MatricNumber string `json:"matric_number" validate:"omitempty,matric"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email" validate:"omitempty,email"`
	Department   string `json:"department"`
	Level        string `json:"level" validate:"omitempty,level"`
	PhoneNumber  string `json:"phone_number"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate, svc *Service) error {
	keep := func(val, origVal string) string {
		if val != "" {
			return val
		}
		return origVal
	}
	us.MatricNumber = keep(CleanMatricNumber(us.MatricNumber), orig.MatricNumber)
	us.FirstName = keep(core.CleanString(us.FirstName), orig.FirstName)
	us.LastName = keep(core.CleanString(us.LastName), orig.LastName)
	us.Email = keep(core.CleanString(us.Email, true /* lower */), orig.Email)
	us.Department = keep(core.CleanString(us.Department), orig.Department)
	us.Level = keep(strings.ToUpper(core.CleanString(us.Level)), orig.Level)
	us.PhoneNumber = keep(core.CleanString(us.PhoneNumber), orig.PhoneNumber)

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.MatricNumber, orig)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Level      string `query:"level"`
	Department string `query:"department"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = strings.ToUpper(core.CleanString(qf.Level))
	qf.Department = core.CleanString(qf.Department)
}

// GetFilter finds a single Student; the first non-empty field wins.
type GetFilter struct {
	ID           string
	MatricNumber string
}
