package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
)

const (
	contextTokenKey   = "userToken"
	contextUserKey    = "user"
	contextStudentKey = "student"
	contextObjectKey  = "object"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the ID of the User (administrators) or of the Student.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	MatricNumber string   `json:"matric_number,omitempty"`
	IsStudent    bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) standardClaims(subject string, now time.Time) jwt.StandardClaims {
	return jwt.StandardClaims{
		Issuer:    a.conf.AppName,
		Subject:   subject,
		ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
		IssuedAt:  now.Unix(),
	}
}

func origIssuedAt(now time.Time, origIat []int64) int64 {
	if len(origIat) > 0 && origIat[0] != 0 {
		return origIat[0]
	}
	return now.Unix()
}

func (a *authenticator) userClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: a.standardClaims(usr.ID, now),
		OrigIssuedAt:   origIssuedAt(now, origIat),
		Username:       usr.Username,
		Email:          usr.Email,
		IsAdmin:        usr.IsAdmin(),
		Roles:          usr.Roles,
	}
}

func (a *authenticator) studentClaims(std student.Student, origIat ...int64) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: a.standardClaims(std.ID, now),
		OrigIssuedAt:   origIssuedAt(now, origIat),
		Email:          std.Email,
		MatricNumber:   std.MatricNumber,
		IsStudent:      true,
	}
}

// generateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken validates a token received outside of the Authorization header.
func (a *authenticator) parseToken(raw string) (Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.jwtConfig.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return a.jwtConfig.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, errUnauthorized
	}
	return *claims, nil
}

// UserToken returns a signed token authenticating usr.
func UserToken(conf *core.Config, usr user.User) (string, error) {
	a := newAuthenticator(conf)
	return a.generateToken(a.userClaims(usr))
}

// StudentToken returns a signed token authenticating std.
func StudentToken(conf *core.Config, std student.Student) (string, error) {
	a := newAuthenticator(conf)
	return a.generateToken(a.studentClaims(std))
}

func (a *authenticator) authenticate(ctx context.Context, uname, pwd string, svc *user.Service) (*Claims, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return a.userClaims(usr), nil
}

// authenticateStudent signs a student in with their matric number.
func (a *authenticator) authenticateStudent(ctx context.Context, matric string, svc *student.Service) (*Claims, error) {
	std, err := svc.GetByMatricNumber(ctx, matric)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding student by matric number")
	}
	return a.studentClaims(std), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}
	if !claims.IsAdmin {
		return user.User{}, errHttpForbidden
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func getContextStudent(ctx echo.Context, svc *student.Service, clms ...Claims) (student.Student, error) {
	if std, ok := ctx.Get(contextStudentKey).(student.Student); ok {
		return std, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return student.Student{}, errors.Wrap(err, "getting context claims")
		}
	}
	if !claims.IsStudent {
		return student.Student{}, errHttpForbidden
	}

	std, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errUnauthorized
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	ctx.Set(contextStudentKey, std)
	return std, nil
}

func (a *authenticator) refreshToken(ctx echo.Context, deps ServerDeps) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	var newClaims *Claims
	if claims.IsStudent {
		std, err := getContextStudent(ctx, deps.StudentSvc, claims)
		if err != nil {
			return "", errors.Wrap(err, "getting context student")
		}
		newClaims = a.studentClaims(std, claims.OrigIssuedAt)
	} else {
		usr, err := getContextUser(ctx, deps.UserSvc, claims)
		if err != nil {
			return "", errors.Wrap(err, "getting context user")
		}
		// check if user is still active
		if !usr.IsActive {
			return "", errAccountDeactivated
		}
		newClaims = a.userClaims(usr, claims.OrigIssuedAt)
	}

	token, err := a.generateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
