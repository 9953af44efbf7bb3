package identity

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is who a connection or request acts as.
type Identity struct {
	UserId string
	Name   string
}

// Issue signs an HS256 token for id valid for ttl.
func Issue(secret []byte, id Identity, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.UserId,
		"name":    id.Name,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// Parse verifies raw and returns the identity it carries.
func Parse(secret []byte, raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return FromToken(token)
}

// FromToken reads the claims of a token that was already verified, such as
// the one gofiber/jwt stores in the request locals.
func FromToken(token *jwt.Token) (Identity, error) {
	if token == nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	userId, _ := claims["user_id"].(string)
	if userId == "" {
		return Identity{}, fmt.Errorf("%w: no user_id", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	return Identity{UserId: userId, Name: name}, nil
}
