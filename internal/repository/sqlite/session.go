package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// Append records an issued token in the login log. Insert-only: no
// session row is ever updated, and deletion happens solely through the
// users cascade.
func (db *DB) Append(ctx context.Context, session *model.Session) error {
	now := time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (user_id, token_id, token, issued_at)
		 VALUES (?, ?, ?, ?)`,
		session.UserID,
		session.TokenID,
		session.Token,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %d: %w", session.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted session id: %w", err)
	}

	session.ID = id
	session.IssuedAt = now
	return nil
}

// ListByUserID returns the user's login history, newest first.
func (db *DB) ListByUserID(ctx context.Context, userID int64) ([]model.Session, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, token_id, token, issued_at
		 FROM sessions WHERE user_id = ? ORDER BY issued_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sessions for user %d: %w", userID, err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenID, &s.Token, &s.IssuedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating session rows: %w", err)
	}

	return sessions, nil
}
