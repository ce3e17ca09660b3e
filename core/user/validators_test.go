package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/sajili/core"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		attrs   []string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcdef12!", wantTag: pwdComplexityTag},
		{name: "no special", pwd: "Abcdef123", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Admin_user1", attrs: []string{"admin_user"}, wantTag: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd1", wantTag: pwdNoCommonTag},
		{name: "ok", pwd: "Qu1et-Harbour", attrs: []string{"Jane Doe", "jdoe", "jane@test.ng"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.pwd, tt.attrs...); got != tt.wantTag {
				t.Errorf("CheckPassword() = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestNewUserValidation(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		name       string
		nu         NewUser
		wantFields []string
	}{
		{
			name:       "empty",
			nu:         NewUser{},
			wantFields: []string{"name", "username", "password", "password_confirm"},
		},
		{
			name: "bad username & roles",
			nu: NewUser{
				Name: "Jane", Username: "jd-1", Password: "Qu1et-Harbour", PasswordConfirm: "Qu1et-Harbour",
				Roles: []string{"root"},
			},
			wantFields: []string{"username", "roles"},
		},
		{
			name: "password mismatch",
			nu: NewUser{
				Name: "Jane", Username: "jane_doe", Password: "Qu1et-Harbour", PasswordConfirm: "Qu1et-Harbor",
			},
			wantFields: []string{"password_confirm"},
		},
		{
			name: "weak password",
			nu: NewUser{
				Name: "Jane", Username: "jane_doe", Password: "password", PasswordConfirm: "password",
			},
			wantFields: []string{"password"},
		},
		{
			name: "valid",
			nu: NewUser{
				Name: "Jane", Username: "jane_doe", Email: "jane@test.ng",
				Password: "Qu1et-Harbour", PasswordConfirm: "Qu1et-Harbour", Roles: []string{RoleAdminOwner},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.nu)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			if !assert.True(t, ok, "expected validator.ValidationErrors, got %v", err) {
				return
			}
			var got []string
			for _, fe := range verrs {
				got = append(got, fe.Field())
				assert.NotEmpty(t, fe.Translate(translator))
			}
			assert.ElementsMatch(t, tt.wantFields, got)
		})
	}
}

func TestUserRoles(t *testing.T) {
	tests := []struct {
		name       string
		roles      []string
		wantRank   int
		wantAdmin  bool
		lecturerOk bool
		adminOk    bool
		ownerOk    bool
	}{
		{name: "no role", roles: nil},
		{name: "unknown role", roles: []string{"admin:janitor"}},
		{name: "lecturer", roles: []string{RoleLecturer}, wantRank: 10, wantAdmin: true, lecturerOk: true},
		{name: "admin", roles: []string{RoleAdmin}, wantRank: 20, wantAdmin: true, lecturerOk: true, adminOk: true},
		{
			name:       "owner",
			roles:      []string{RoleLecturer, RoleAdminOwner},
			wantRank:   30,
			wantAdmin:  true,
			lecturerOk: true,
			adminOk:    true,
			ownerOk:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{Roles: tt.roles}
			assert.Equal(t, tt.wantRank, HighestRank(tt.roles))
			assert.Equal(t, tt.wantAdmin, usr.IsAdmin())
			assert.Equal(t, tt.lecturerOk, usr.Can(RoleLecturer))
			assert.Equal(t, tt.adminOk, usr.Can(RoleAdmin))
			assert.Equal(t, tt.ownerOk, usr.Can(RoleAdminOwner))
		})
	}

	assert.False(t, Grants(AllRoles, "admin:janitor"))
	assert.Equal(t, 0, Rank(""))
}

func TestUserPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("Qu1et-Harbour"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	assert.NoError(t, usr.CheckPassword("Qu1et-Harbour"))
	assert.Error(t, usr.CheckPassword("qu1et-harbour"))
}
