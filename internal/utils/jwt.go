package utils // package utils provides helper functions for token creation and hashing

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SeasonToken is a signed, season-scoped session artifact.  The Token
// field contains the JWT string; Exp stores its UTC expiration.  The
// token carries the season scope and a pointer to the server-side
// session row so the context service can find the principal's payload
// blob without a user lookup.
type SeasonToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewSeasonToken builds and signs an HS256 JWT scoped to one season.
// Claims:
//
//	sub          – user id
//	role         – platform-level role of the user
//	season_id    – the season the token is scoped to
//	season_role  – the user's role within that season (the "season:<role>" scope)
//	sid          – server-side session row id (context carrier)
//	exp, iat     – standard expiry / issued-at
func NewSeasonToken(secret string, userID uint64, role string, seasonID uint64, seasonRole string, sessionID uint64, ttlMin int) (SeasonToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":         userID,
		"role":        role,
		"season_id":   seasonID,
		"season_role": seasonRole,
		"sid":         sessionID,
		"exp":         exp.Unix(),
		"iat":         time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SeasonToken{}, err
	}
	return SeasonToken{Token: signed, Exp: exp}, nil
}
