package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/user"
	"github.com/trezcool/sajili/tests"
)

func TestService_Create(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()

	nu := user.NewUser{
		Name:            " Jane  Doe ",
		Username:        "JaneDoe",
		Email:           "Jane@School.edu",
		Password:        "Chai-Latte-42",
		PasswordConfirm: "Chai-Latte-42",
	}
	require.NoError(t, nu.Validate(app.Validate, app.Users))
	usr, err := app.Users.Create(ctx, nu)
	require.NoError(t, err)

	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Jane Doe", usr.Name)
	assert.Equal(t, "janedoe", usr.Username)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword("Chai-Latte-42"))

	for _, login := range []string{"janedoe", " JANEDOE", "jane@school.edu"} {
		got, err := app.Users.GetByUsernameOrEmail(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, usr.ID, got.ID)
	}

	// taken username
	nu = user.NewUser{Name: "J", Username: "janedoe", Password: "Chai-Latte-42", PasswordConfirm: "Chai-Latte-42"}
	err = nu.Validate(app.Validate, app.Users)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Fields[0].Field)
}

func TestService_Query(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	now := time.Now()
	alice := testutil.CreateUser(t, app.UserRepo, "Alice", "alice", "alice@school.edu", "", []string{user.RoleAdmin}, true, now.Add(-2*time.Hour))
	bob := testutil.CreateUser(t, app.UserRepo, "Bob", "bobby", "bob@school.edu", "", []string{user.RoleAdminOwner}, false, now.Add(-time.Hour))

	active := true
	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all", want: []string{alice.ID, bob.ID}},
		{name: "search", filter: &user.QueryFilter{Search: "BOB@"}, want: []string{bob.ID}},
		{name: "active", filter: &user.QueryFilter{IsActive: &active}, want: []string{alice.ID}},
		{name: "newest first", ordering: []core.DBOrdering{{Field: "created_at"}}, want: []string{bob.ID, alice.ID}},
		{name: "unknown field ignored", ordering: []core.DBOrdering{{Field: "password_hash"}}, want: []string{alice.ID, bob.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := app.Users.Query(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			got := make([]string, 0, len(users))
			for _, u := range users {
				got = append(got, u.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Update(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, app.UserRepo, "Alice", "alice", "alice@school.edu", "Chai-Latte-42", []string{user.RoleAdmin}, true)
	testutil.CreateUser(t, app.UserRepo, "Bob", "bobby", "bob@school.edu", "", nil, true)

	uu := user.UpdateUser{Email: "bob@school.edu"}
	assert.Error(t, uu.Validate(usr, app.Validate, app.Users))

	inactive := false
	uu = user.UpdateUser{Name: "Alice B.", IsActive: &inactive}
	require.NoError(t, uu.Validate(usr, app.Validate, app.Users))
	updated, err := app.Users.Update(ctx, usr, uu)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)
	assert.Equal(t, "alice", updated.Username)
	assert.False(t, updated.IsActive)
	assert.NoError(t, updated.CheckPassword("Chai-Latte-42"), "password is kept")

	updated, err = app.Users.SetPassword(ctx, updated, "Green-Tea-1984")
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("Green-Tea-1984"))

	updated, err = app.Users.SetLastLogin(ctx, updated)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), updated.LastLogin, time.Minute)

	require.NoError(t, app.Users.Delete(ctx, usr.ID))
	_, err = app.Users.GetByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
