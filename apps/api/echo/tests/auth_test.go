package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/sajili/apps/api/echo"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
	"github.com/trezcool/sajili/tests"
)

func checkToken(t *testing.T, tt httpTest, srv *echoapi.Server) {
	t.Helper()
	rec := serve(srv, tt)
	if tt.wantCode != http.StatusOK {
		checkCodeAndData(t, tt, rec)
		return
	}

	// cannot guess new token.. just check that it's not empty
	if rec.Code != tt.wantCode {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	var respData echoapi.LoginResponse
	decode(t, rec, &respData)
	if respData.Token == "" {
		t.Error("failed! empty token")
	}
}

func Test_authApi_login(t *testing.T) {
	app, srv := setup(t)

	createAdmin(t, app, "admin")
	testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@sajili.test", "Chai-Latte-42", []string{user.RoleAdmin}, false) // 😂

	failed := marchallObj(t, httpErr{Error: "authentication failed"})
	body := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{name: "Fields required", body: body("", ""), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{
			"username": "this field is required",
			"password": "this field is required",
		})},
		{name: "Unknown user", body: body("ghost", "Chai-Latte-42"), wantCode: http.StatusBadRequest, wantData: failed},
		{name: "Wrong password", body: body("admin", "chai-latte-42"), wantCode: http.StatusBadRequest, wantData: failed},
		{name: "Deactivated", body: body("ndog", "Chai-Latte-42"), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Username", body: body("  ADMIN ", "Chai-Latte-42"), wantCode: http.StatusOK},
		{name: "Email", body: body("admin@sajili.test", "Chai-Latte-42"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		tt.method = http.MethodPost
		tt.path = "/v1/auth/login"
		t.Run(tt.name, func(t *testing.T) {
			checkToken(t, tt, srv)
		})
	}

	usr, err := app.Users.GetByUsernameOrEmail(context.Background(), "admin")
	if err != nil {
		t.Fatalf("GetByUsernameOrEmail() failed: %v", err)
	}
	if usr.LastLogin.IsZero() {
		t.Error("failed! last login not set")
	}
}

func Test_authApi_studentLogin(t *testing.T) {
	app, srv := setup(t)
	std := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)

	body := func(matric string) []byte {
		return marchallObj(t, echoapi.StudentLoginRequest{MatricNumber: matric})
	}
	tests := []httpTest{
		{name: "Field required", body: body(""), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{
			"matric_number": "this field is required",
		})},
		{name: "Unknown matric number", body: body("CFJ/ND/COM/2024/999"), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "Garbage", body: body("garbage"), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "Signed in", body: body(std.MatricNumber), wantCode: http.StatusOK},
		{name: "Signed in (lower case)", body: body(" cfj/nd/com/2024/001 "), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		tt.method = http.MethodPost
		tt.path = "/v1/auth/student"
		t.Run(tt.name, func(t *testing.T) {
			checkToken(t, tt, srv)
		})
	}
}

func Test_authApi_refreshToken(t *testing.T) {
	app, srv := setup(t)

	admin := createAdmin(t, app, "admin")
	naughty := testutil.CreateUser(t, app.UserRepo, "N Dog", "ndog", "ndog@sajili.test", "", []string{user.RoleAdmin}, false) // 😂
	std := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)

	now := time.Now()
	unrefreshable := jwt.NewWithClaims(jwt.SigningMethodHS256, &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    app.Conf.AppName,
			Subject:   admin.ID,
			ExpiresAt: now.Add(app.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * app.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     admin.Username,
		IsAdmin:      true,
		Roles:        admin.Roles,
	})
	unrefreshableToken, err := unrefreshable.SignedString([]byte(app.Conf.SecretKey))
	if err != nil {
		t.Fatalf("SignedString(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Invalid token", token: "not.a.token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "Inactive user not allowed", token: getToken(t, app, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, app, admin), wantCode: http.StatusOK},
		{name: "Student token refreshed", token: getStudentToken(t, app, std), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		tt.method = http.MethodPost
		tt.path = "/v1/auth/token-refresh"
		t.Run(tt.name, func(t *testing.T) {
			checkToken(t, tt, srv)
		})
	}
}
