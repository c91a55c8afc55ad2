package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/innerhue/moodsync/models"
)

var (
	ErrInvalidTokenParams     = errors.New("invalid params for issuing token")
	ErrInvalidAuthorization   = errors.New("invalid authorization header")
	ErrTokenSubjectIsNotValid = errors.New("token subject is not a valid account id")
)

// TokenParams describes a bearer token for one account. Every device of the
// account presents the same kind of token.
type TokenParams struct {
	Issuer   string
	UserID   int64
	Duration time.Duration
	SignKey  string
}

// IssueToken signs an HS256 token with iss, sub (the account id), iat, exp
// and a random jti.
func IssueToken(p TokenParams) (models.Token, error) {
	if p.Issuer == "" || p.Duration == 0 || p.SignKey == "" || p.UserID <= 0 {
		return models.Token{}, ErrInvalidTokenParams
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    p.Issuer,
		Subject:   strconv.FormatInt(p.UserID, 10),
		ID:        NewID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.Duration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.SignKey))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred during signing JWT token: %w", err)
	}

	return models.Token{
		Token:            token,
		RegisteredClaims: claims,
		SignedString:     signed,
		UserID:           p.UserID,
	}, nil
}

// ParseToken verifies the signature, the issuer and the expiry of raw and
// returns the token with UserID taken from the subject.
func ParseToken(raw, signKey, issuer string) (models.Token, error) {
	parsed := &models.Token{}
	token, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return []byte(signKey), nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	parsed.Token = token
	parsed.SignedString = raw

	userID, err := parsed.GetUserID()
	if err != nil || userID <= 0 {
		return models.Token{}, ErrTokenSubjectIsNotValid
	}
	parsed.UserID = userID

	return *parsed, nil
}

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authorizationHeader), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidAuthorization
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidAuthorization
	}
	return token, nil
}
