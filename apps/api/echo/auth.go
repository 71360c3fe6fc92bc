package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/gradebook/core"
)

const (
	contextTokenKey = "adminToken"
	audience        = "Gradebook"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GetAdminClaims returns the claims of the configured administrator.
// origIat keeps the original issue time across refreshes.
func GetAdminClaims(conf *core.Config, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   conf.Admin.Username,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     conf.Admin.Username,
		IsAdmin:      true,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// authenticate checks the credentials against the configured administrator.
// Without a password hash nobody can log in.
func authenticate(conf *core.Config, uname, pwd string) (*Claims, error) {
	if conf.Admin.PasswordHash == "" || uname != conf.Admin.Username {
		return nil, errAuthenticationFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(conf.Admin.PasswordHash), []byte(pwd)); err != nil {
		return nil, errAuthenticationFailed
	}
	return GetAdminClaims(conf), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) (core.Actor, bool) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Actor{}, false
	}
	return core.Actor{ID: claims.Subject, Username: claims.Username}, true
}

func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// the administrator may have been renamed since
	if claims.Username != conf.Admin.Username {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, GetAdminClaims(conf, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

type authApi struct {
	conf     *core.Config
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, validate *validator.Validate) {
	api := authApi{conf: conf, validate: validate}

	g.POST("/login", api.login)
	g.POST("/token-refresh", api.refreshToken, jwt)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(api.conf, data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username)
	return validate.Struct(lr)
}
