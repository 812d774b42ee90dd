package project

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/bitbox360/backend/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	errInvalidToken = errors.New("invalid student token")
)

// StudentClaims is the payload of a student evaluation token: a single-use
// capability scoped to one student and one group, expiring when the
// evaluation window closes.
type StudentClaims struct {
	jwt.StandardClaims
	GroupID string `json:"group_id"`
}

// MakeStudentToken mints a signed evaluation token for a group member.
func MakeStudentToken(conf *core.Config, studentID, groupID uuid.UUID, expiry time.Time) (string, error) {
	claims := &StudentClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   studentID.String(),
			ExpiresAt: expiry.Unix(),
			IssuedAt:  nowFunc().Unix(),
		},
		GroupID: groupID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(conf.SecretKey)
}

// VerifyStudentToken checks a token's signature and expiry and returns its
// claims. Used by the evaluation submission flow when a token is redeemed.
func VerifyStudentToken(conf *core.Config, token string) (*StudentClaims, error) {
	claims := new(StudentClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}
