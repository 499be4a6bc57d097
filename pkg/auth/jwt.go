package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrEmptyUserID   = errors.New("userID cannot be empty")
	ErrEmptyUsername = errors.New("username cannot be empty")
	ErrInvalidRole   = errors.New("invalid role")
	ErrShortSecret   = errors.New("secret must be at least 32 characters")
)

// Roles, in increasing privilege order. Viewers can read layouts and watch
// frame streams, operators can additionally compute frames and manage their
// sessions, admins can delete any session.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

var roleRank = map[string]int{
	RoleViewer:   0,
	RoleOperator: 1,
	RoleAdmin:    2,
}

// RoleAtLeast reports whether role carries at least the privilege of min.
// Unknown roles never qualify.
func RoleAtLeast(role, min string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	m, ok := roleRank[min]
	if !ok {
		return false
	}
	return r >= m
}

// ValidRole reports whether the role name is one this service knows.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Claims carries the identity a validated token asserts.
type Claims struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// JWTManager issues and validates HMAC-signed access and refresh tokens.
type JWTManager struct {
	secretKey            []byte
	tokenDuration        time.Duration
	refreshTokenDuration time.Duration
}

// NewJWTManager creates a JWT manager. The secret must be at least 32
// characters.
func NewJWTManager(secret string, tokenDuration, refreshTokenDuration time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &JWTManager{
		secretKey:            []byte(secret),
		tokenDuration:        tokenDuration,
		refreshTokenDuration: refreshTokenDuration,
	}, nil
}

// GenerateToken issues an access token for the given identity.
func (m *JWTManager) GenerateToken(userID, username, role string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	if username == "" {
		return "", ErrEmptyUsername
	}
	if !ValidRole(role) {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	now := time.Now()
	expiresAt := now.Add(m.tokenDuration)

	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (m *JWTManager) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	claimsMap, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claimsMap, nil
}

func stringClaim(claims jwt.MapClaims, key string) (string, error) {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing or invalid %s", ErrInvalidClaims, key)
	}
	return v, nil
}

func timeClaim(claims jwt.MapClaims, key string) (time.Time, error) {
	v, ok := claims[key].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing or invalid %s", ErrInvalidClaims, key)
	}
	return time.Unix(int64(v), 0), nil
}

// ValidateToken validates an access token and returns its claims.
func (m *JWTManager) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claimsMap, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if t, _ := claimsMap["type"].(string); t == "refresh" {
		return nil, fmt.Errorf("%w: refresh token used as access token", ErrInvalidClaims)
	}

	userID, err := stringClaim(claimsMap, "user_id")
	if err != nil {
		return nil, err
	}
	username, err := stringClaim(claimsMap, "username")
	if err != nil {
		return nil, err
	}
	role, err := stringClaim(claimsMap, "role")
	if err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidClaims, role)
	}
	expiresAt, err := timeClaim(claimsMap, "exp")
	if err != nil {
		return nil, err
	}
	issuedAt, err := timeClaim(claimsMap, "iat")
	if err != nil {
		return nil, err
	}

	return &Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		ExpiresAt: expiresAt,
		IssuedAt:  issuedAt,
	}, nil
}

// GenerateRefreshToken issues a refresh token carrying only the user ID.
func (m *JWTManager) GenerateRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(m.refreshTokenDuration).Unix(),
		"iat":     now.Unix(),
		"type":    "refresh",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

// ValidateRefreshToken validates a refresh token and returns the user ID it
// was issued for.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claimsMap, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}
	if t, _ := claimsMap["type"].(string); t != "refresh" {
		return "", fmt.Errorf("%w: not a refresh token", ErrInvalidClaims)
	}
	return stringClaim(claimsMap, "user_id")
}
