package auth

import (
	"errors"
	"fmt"
	"time"

	"taskBoard/internal/models/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("недействительный токен")

type Claims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет HS256-токены доступа
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (ti *TokenIssuer) Issue(u *user.User) (string, time.Time, error) {
	now := ti.now()
	expires := now.Add(ti.ttl)
	claims := &Claims{
		UserID:  u.ID.String(),
		IsAdmin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("подпись токена: %w", err)
	}
	return signed, expires, nil
}

func (ti *TokenIssuer) Parse(raw string) (user.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return ti.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(ti.now))
	if err != nil || !token.Valid {
		return user.Actor{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return user.Actor{}, ErrInvalidToken
	}
	return user.Actor{ID: id, IsAdmin: claims.IsAdmin}, nil
}
