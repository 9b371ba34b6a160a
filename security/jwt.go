package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bheem-chat/config/common"
)

const (
	issuer   = "bheem-chat"
	audience = "bheem-chat"
)

var ErrInvalidClaims = errors.New("token claims are not valid")

// CurrentUser is the caller identity resolved from a bearer token.
type CurrentUser struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

// TenantRef returns the tenant as a nullable column value.
func (u CurrentUser) TenantRef() *string {
	if u.TenantID == "" {
		return nil
	}
	tenant := u.TenantID
	return &tenant
}

type JWT struct {
	config *common.Config
}

func NewJWT(config *common.Config) *JWT {
	return &JWT{config: config}
}

func (j *JWT) GenerateToken(user CurrentUser, ttl time.Duration) (string, error) {
	secretKey := j.config.GetJwtConfig()

	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"tenant_id": user.TenantID,
		"role":      user.Role,
		"name":      user.Name,
		"avatar":    user.Avatar,
		"aud":       audience,
		"iss":       issuer,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(secretKey)
}

func (j *JWT) VerifyJwtToken(token string) (jwt.MapClaims, error) {
	secretKey := j.config.GetJwtConfig()

	tokenParse, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := tokenParse.Claims.(jwt.MapClaims); ok && tokenParse.Valid {
		return claims, nil
	}
	return nil, ErrInvalidClaims
}

// CurrentUserFromClaims maps verified claims onto a CurrentUser. user_id is mandatory.
func CurrentUserFromClaims(claims jwt.MapClaims) (CurrentUser, error) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return CurrentUser{}, ErrInvalidClaims
	}
	user := CurrentUser{ID: userID}
	user.TenantID, _ = claims["tenant_id"].(string)
	user.Role, _ = claims["role"].(string)
	user.Name, _ = claims["name"].(string)
	user.Avatar, _ = claims["avatar"].(string)
	return user, nil
}

func (j *JWT) GetCurrentUser(token string) (CurrentUser, error) {
	claims, err := j.VerifyJwtToken(token)
	if err != nil {
		return CurrentUser{}, err
	}
	return CurrentUserFromClaims(claims)
}
