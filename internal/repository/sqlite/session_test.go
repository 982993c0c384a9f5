package sqlite

import (
	"context"
	"testing"

	"github.com/medora-app/server/internal/model"
)

func TestSessionAppend(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "S", "sessions@example.com")

	session := &model.Session{UserID: user.ID, TokenID: "jti-abc", Token: "header.payload.sig"}
	if err := db.Append(context.Background(), session); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if session.ID == 0 {
		t.Error("Append() did not set session.ID")
	}
	if session.IssuedAt.IsZero() {
		t.Error("Append() did not set session.IssuedAt")
	}
}

func TestSessionListByUserID(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "S", "list@example.com")
	other := createTestUser(t, db, "O", "other@example.com")

	for _, tokenID := range []string{"jti-1", "jti-2", "jti-3"} {
		s := &model.Session{UserID: user.ID, TokenID: tokenID, Token: "t-" + tokenID}
		if err := db.Append(context.Background(), s); err != nil {
			t.Fatalf("Append(%s) error = %v", tokenID, err)
		}
	}
	if err := db.Append(context.Background(), &model.Session{UserID: other.ID, TokenID: "jti-x", Token: "t-x"}); err != nil {
		t.Fatalf("Append() for other user error = %v", err)
	}

	sessions, err := db.ListByUserID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUserID() error = %v", err)
	}

	if len(sessions) != 3 {
		t.Fatalf("len(sessions) = %d, want 3 (other user's rows must not leak)", len(sessions))
	}
	// Newest first: the last append comes back first.
	if sessions[0].TokenID != "jti-3" {
		t.Errorf("sessions[0].TokenID = %q, want %q", sessions[0].TokenID, "jti-3")
	}
}

func TestSessionListByUserID_Empty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "E", "empty@example.com")

	sessions, err := db.ListByUserID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUserID() error = %v", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("sessions = %#v, want empty non-nil slice", sessions)
	}
}
