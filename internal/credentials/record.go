package credentials

import (
	"time"

	"golang.org/x/oauth2"
)

// Record is one account's stored credential. Expiry is absolute UTC.
type Record struct {
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
	TokenType    string    `json:"token_type"`
}

// NewRecord builds a Record from an exchanged oauth2 token.
func NewRecord(email string, token *oauth2.Token, scopes []string) Record {
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return Record{
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry.UTC(),
		Scopes:       scopes,
		TokenType:    tokenType,
	}
}

// Token converts the record to an oauth2 token.
func (r Record) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry,
		TokenType:    r.TokenType,
	}
}

// Expired reports whether the access token has passed its expiry. A zero
// expiry means the token does not expire.
func (r Record) Expired() bool {
	return r.ExpiredWithin(0)
}

// ExpiredWithin reports whether the access token expires within skew from now.
func (r Record) ExpiredWithin(skew time.Duration) bool {
	if r.Expiry.IsZero() {
		return false
	}
	return !time.Now().Add(skew).Before(r.Expiry)
}

// Usable reports whether the record can still produce a valid access token.
// An expired access token with no refresh token is unusable and must force
// re-authentication rather than be treated as valid.
func (r Record) Usable() bool {
	return !r.Expired() || r.RefreshToken != ""
}
