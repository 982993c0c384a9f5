package model

import "time"

// Session is one row of the append-only login log.
//
// A row is written on every successful login and never updated or read back
// during authorization — token validity is decided purely by the JWT
// signature and expiry. The log exists for visibility (which tokens were
// issued to whom, and when) and gives a future revocation denylist a stable
// key: TokenID is the token's "jti" claim.
//
// Rows are removed only by the ON DELETE CASCADE when the owning user row
// is deleted.
type Session struct {
	ID       int64     `json:"id"       db:"id"`
	UserID   int64     `json:"userId"   db:"user_id"`
	TokenID  string    `json:"tokenId"  db:"token_id"`
	Token    string    `json:"-"        db:"token"` // raw JWT, kept out of API responses
	IssuedAt time.Time `json:"issuedAt" db:"issued_at"`
}
