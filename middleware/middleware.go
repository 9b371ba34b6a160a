package middleware

import (
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"bheem-chat/config/common"
	"bheem-chat/dto/res"
	"bheem-chat/security"
)

const (
	jwtContextKey  = "jwt"
	CurrentUserKey = "current_user"
)

type Middleware struct {
	*common.Config
	*security.JWT
	Log *logrus.Logger
}

func NewMiddleware(config *common.Config, jwt *security.JWT, logger *logrus.Logger) *Middleware {
	return &Middleware{Config: config, JWT: jwt, Log: logger}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(res.ErrorResponse{
		Status:     fiber.ErrUnauthorized.Message,
		StatusCode: fiber.StatusUnauthorized,
		Error:      message,
	})
}

// JWTProtected accepts the bearer token from the Authorization header, or from the
// token query parameter for websocket upgrades, and stores the CurrentUser in locals.
func (middleware *Middleware) JWTProtected(c *fiber.Ctx) error {
	secretKey := middleware.GetJwtConfig()

	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: secretKey},
		ContextKey:  jwtContextKey,
		TokenLookup: "header:Authorization,query:token",
		AuthScheme:  "Bearer",
		SuccessHandler: func(ctx *fiber.Ctx) error {
			token, ok := ctx.Locals(jwtContextKey).(*jwt.Token)
			if !ok {
				return unauthorized(ctx, "Token is not valid")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(ctx, "Token is not valid")
			}
			user, err := security.CurrentUserFromClaims(claims)
			if err != nil {
				middleware.Log.WithError(err).Error("Failed to extract user from token")
				return unauthorized(ctx, "Failed to extract user from token")
			}
			ctx.Locals(CurrentUserKey, user)
			return ctx.Next()
		},
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			middleware.Log.WithError(err).Warn("Failed to validate JWT")
			return unauthorized(ctx, "Token is not valid")
		},
	})(c)
}

// OptionalUser resolves the caller when a valid bearer token is sent and lets anonymous
// requests through untouched.
func (middleware *Middleware) OptionalUser(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return c.Next()
	}
	user, err := middleware.JWT.GetCurrentUser(token)
	if err != nil {
		return unauthorized(c, "Token is not valid")
	}
	c.Locals(CurrentUserKey, user)
	return c.Next()
}

// CurrentUser returns the caller stored by JWTProtected or OptionalUser.
func CurrentUser(c *fiber.Ctx) (security.CurrentUser, bool) {
	user, ok := c.Locals(CurrentUserKey).(security.CurrentUser)
	return user, ok
}
