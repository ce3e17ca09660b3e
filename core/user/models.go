package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/sajili/core"
)

// Staff roles, from the least to the most privileged.
// A role grants everything the roles below it grant.
const (
	RoleLecturer   = "admin:lecturer" // runs sessions, marks attendance, reads reports
	RoleAdmin      = "admin:"         // manages students, courses and staff accounts
	RoleAdminOwner = "admin:owner"    // may grant any role
)

var (
	AllRoles = []string{RoleLecturer, RoleAdmin, RoleAdminOwner}

	roleRanks = map[string]int{
		RoleLecturer:   10,
		RoleAdmin:      20,
		RoleAdminOwner: 30,
	}

	Roles = []Role{
		{Name: "Lecturer", Value: RoleLecturer, Rank: 10},
		{Name: "Admin", Value: RoleAdmin, Rank: 20},
		{Name: "Admin Owner", Value: RoleAdminOwner, Rank: 30},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Rank  int    `json:"rank"`
}

// Rank orders staff roles by privilege. Unknown roles rank 0.
func Rank(role string) int {
	return roleRanks[role]
}

// HighestRank is the rank of the most privileged of roles.
func HighestRank(roles []string) int {
	var highest int
	for _, role := range roles {
		if r := Rank(role); r > highest {
			highest = r
		}
	}
	return highest
}

// Grants reports whether roles include role or a more privileged one.
func Grants(roles []string, role string) bool {
	want := Rank(role)
	return want > 0 && HighestRank(roles) >= want
}

// User is a staff account. Students sign in with their matric number instead.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`           // UTC
	UpdatedAt    time.Time `json:"updated_at"`           // UTC
	LastLogin    time.Time `json:"last_login,omitempty"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// IsAdmin reports whether the user holds any staff role.
func (u *User) IsAdmin() bool {
	return HighestRank(u.Roles) > 0
}

func (u *User) Can(role string) bool {
	return Grants(u.Roles, role)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"required,min=5,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if len(nu.Roles) == 0 {
		nu.Roles = []string{RoleAdmin}
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=5,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter finds a single User; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}
