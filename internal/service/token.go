package service

import (
	"fmt"
	"time"

	"todo_api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
	Access string `json:"access"`
}

// TokenService signs and verifies session tokens with a shared HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration // zero means tokens carry no expiry
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID with access "auth".
// Every token carries a random jti so two sessions never share a token string.
func (s *TokenService) Issue(userID primitive.ObjectID) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID.Hex(),
		Access: models.AccessAuth,
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry and returns the encoded user id and access kind.
func (s *TokenService) Verify(accessToken string) (primitive.ObjectID, string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithStrictDecoding())
	if err != nil {
		return primitive.NilObjectID, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return primitive.NilObjectID, "", ErrInvalidToken
	}
	if claims.Access == "" {
		return primitive.NilObjectID, "", fmt.Errorf("%w: missing access claim", ErrInvalidToken)
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, "", fmt.Errorf("%w: bad subject: %v", ErrInvalidToken, err)
	}
	return userID, claims.Access, nil
}
