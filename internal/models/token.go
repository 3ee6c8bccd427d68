// Package models defines types shared across internal packages.
package models

// TokenRecord is the raw token JSON returned by the identity provider.
// Only access_token, refresh_token and token_id are interpreted; every
// other field is carried through untouched so the persisted record
// round-trips whatever the provider sent.
type TokenRecord map[string]any

// AccessToken returns the access_token field, or "" when absent or not a string.
func (r TokenRecord) AccessToken() string { return r.str("access_token") }

// RefreshToken returns the refresh_token field, or "".
func (r TokenRecord) RefreshToken() string { return r.str("refresh_token") }

// TokenID returns the token_id field, or "".
func (r TokenRecord) TokenID() string { return r.str("token_id") }

func (r TokenRecord) str(key string) string {
	if r == nil {
		return ""
	}

	s, _ := r[key].(string)

	return s
}

// Clone returns a shallow copy. Nested values are shared, which is fine
// because the record is only ever replaced field by field at the top level.
func (r TokenRecord) Clone() TokenRecord {
	if r == nil {
		return nil
	}

	out := make(TokenRecord, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}
