package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/medora-app/server/internal/apperror"
	"github.com/medora-app/server/internal/auth"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. A fake (not a
// mock framework) keeps these tests dependency-free and easy to read.
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id int64, name, email string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	for otherID, other := range f.users {
		if otherID != id && other.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	u.Name, u.Email = name, email
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

// fakeSessionRepo records appended sessions in order.
type fakeSessionRepo struct {
	sessions  []model.Session
	appendErr error
}

func (f *fakeSessionRepo) Append(ctx context.Context, session *model.Session) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	session.ID = int64(len(f.sessions) + 1)
	session.IssuedAt = time.Now()
	f.sessions = append(f.sessions, *session)
	return nil
}

func (f *fakeSessionRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Session, error) {
	out := []model.Session{}
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].UserID == userID {
			out = append(out, f.sessions[i])
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestAuthService wires an AuthService with fake repositories, a fast
// bcrypt cost, and a short known secret.
func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeSessionRepo) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordService(bcrypt.MinCost)

	users := newFakeUserRepo()
	sessions := &fakeSessionRepo{}
	svc := NewAuthService(users, sessions, tokens, passwords, testLogger())
	return svc, users, sessions
}

func mustSignup(t *testing.T, svc *AuthService, name, email, password string) *AuthResult {
	t.Helper()
	result, err := svc.Signup(context.Background(), name, email, password)
	if err != nil {
		t.Fatalf("Signup(%s) error = %v", email, err)
	}
	return result
}

// =========================================================================
// SIGNUP TESTS
// =========================================================================

func TestSignup_Success(t *testing.T) {
	svc, users, _ := newTestAuthService(t)

	result := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	if result.Token == "" {
		t.Error("Signup() returned empty token")
	}
	if result.User.ID == 0 {
		t.Error("Signup() returned user without ID")
	}
	if result.User.Email != "a@b.com" {
		t.Errorf("User.Email = %q, want %q", result.User.Email, "a@b.com")
	}

	// The stored hash is never the plaintext, and round-trips through verify.
	stored := users.users[result.User.ID]
	if stored.PasswordHash == "Abcdef1!" {
		t.Fatal("stored password equals plaintext")
	}
	if err := auth.NewPasswordService(bcrypt.MinCost).Verify(stored.PasswordHash, "Abcdef1!"); err != nil {
		t.Errorf("stored hash does not verify against plaintext: %v", err)
	}
}

func TestSignup_ValidationFailures(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "a@b.com", "Abcdef1!"},
		{"missing email", "A", "", "Abcdef1!"},
		{"bad email format", "A", "not-an-email", "Abcdef1!"},
		{"email with spaces", "A", "a b@c.com", "Abcdef1!"},
		{"missing password", "A", "a@b.com", ""},
		{"short password", "A", "a@b.com", "Ab1!"},
		{"no uppercase", "A", "a@b.com", "abcdef1!"},
		{"no lowercase", "A", "a@b.com", "ABCDEF1!"},
		{"no digit", "A", "a@b.com", "Abcdefg!"},
		{"no special", "A", "a@b.com", "Abcdefg1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.userName, tc.email, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Signup() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	_, err := svc.Signup(context.Background(), "B", "a@b.com", "Abcdef1!")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Signup() error = %v, want ErrConflict", err)
	}
	if len(users.users) != 1 {
		t.Errorf("user count = %d, want exactly 1", len(users.users))
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, _, sessions := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	result, err := svc.Login(context.Background(), "a@b.com", "Abcdef1!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned empty token")
	}
	if result.User.ID != signup.User.ID {
		t.Errorf("User.ID = %d, want %d", result.User.ID, signup.User.ID)
	}

	// Every successful login appends exactly one session row.
	if len(sessions.sessions) != 1 {
		t.Fatalf("session rows = %d, want 1", len(sessions.sessions))
	}
	if sessions.sessions[0].UserID != signup.User.ID {
		t.Errorf("session.UserID = %d, want %d", sessions.sessions[0].UserID, signup.User.ID)
	}
	if sessions.sessions[0].Token != result.Token {
		t.Error("session row does not record the issued token")
	}
}

func TestLogin_FailureModesAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	_, errUnknown := svc.Login(context.Background(), "nobody@b.com", "Abcdef1!")
	_, errWrongPw := svc.Login(context.Background(), "a@b.com", "Wrong-pw1!")

	for _, err := range []error{errUnknown, errWrongPw} {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
		}
	}

	// Same message for both — anything else enables user enumeration.
	var a, b *apperror.AppError
	errors.As(errUnknown, &a)
	errors.As(errWrongPw, &b)
	if a.Message != b.Message {
		t.Errorf("failure messages differ: %q vs %q", a.Message, b.Message)
	}
}

func TestLogin_NoSessionRowOnFailure(t *testing.T) {
	svc, _, sessions := newTestAuthService(t)
	mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	svc.Login(context.Background(), "a@b.com", "Wrong-pw1!")

	if len(sessions.sessions) != 0 {
		t.Errorf("session rows after failed login = %d, want 0", len(sessions.sessions))
	}
}

func TestLogin_MissingFieldsAreValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// UPDATE ACCOUNT TESTS
// =========================================================================

func TestUpdateAccount_Success(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "Old Name", "old@b.com", "Abcdef1!")

	result, err := svc.UpdateAccount(context.Background(), signup.User.ID, "New Name", "new@b.com")
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}

	stored := users.users[signup.User.ID]
	if stored.Name != "New Name" || stored.Email != "new@b.com" {
		t.Errorf("stored user = %q / %q after update", stored.Name, stored.Email)
	}
	if result.User.Email != "new@b.com" {
		t.Errorf("result.User.Email = %q, want %q", result.User.Email, "new@b.com")
	}

	// A fresh token carrying the new email comes back with the result.
	if result.Token == "" {
		t.Fatal("UpdateAccount() returned empty token")
	}
	if result.Token == signup.Token {
		t.Error("UpdateAccount() returned the original token unchanged")
	}
}

func TestUpdateAccount_EmailTakenIsConflict(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")
	signup := mustSignup(t, svc, "B", "b@b.com", "Abcdef1!")

	_, err := svc.UpdateAccount(context.Background(), signup.User.ID, "B", "a@b.com")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("UpdateAccount() error = %v, want ErrConflict", err)
	}
	if users.users[signup.User.ID].Email != "b@b.com" {
		t.Error("email changed despite the conflict")
	}
}

func TestUpdateAccount_ValidationFailures(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	cases := []struct {
		name     string
		userName string
		email    string
	}{
		{"missing name", "", "a@b.com"},
		{"missing email", "A", ""},
		{"bad email format", "A", "not-an-email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateAccount(context.Background(), signup.User.ID, tc.userName, tc.email)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("UpdateAccount() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpdateAccount_DeletedUserIsNotFound(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.UpdateAccount(context.Background(), 99, "Ghost", "ghost@b.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateAccount() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CHANGE PASSWORD TESTS
// =========================================================================

func TestChangePassword_Success(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	err := svc.ChangePassword(context.Background(), signup.User.ID, "Abcdef1!", "Newpass2@")
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	// Old password no longer works, new one does.
	if _, err := svc.Login(context.Background(), "a@b.com", "Abcdef1!"); err == nil {
		t.Error("Login() with old password should fail after change")
	}
	if _, err := svc.Login(context.Background(), "a@b.com", "Newpass2@"); err != nil {
		t.Errorf("Login() with new password failed: %v", err)
	}
}

func TestChangePassword_WrongCurrentIsValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	err := svc.ChangePassword(context.Background(), signup.User.ID, "Wrong-pw1!", "Newpass2@")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ChangePassword() error = %v, want ErrValidation", err)
	}
}

func TestChangePassword_WeakNewPasswordRejected(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	err := svc.ChangePassword(context.Background(), signup.User.ID, "Abcdef1!", "weak")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ChangePassword() error = %v, want ErrValidation", err)
	}
}

func TestChangePassword_DeletedUserIsNotFound(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	err := svc.ChangePassword(context.Background(), 99, "Abcdef1!", "Newpass2@")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ChangePassword() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE ACCOUNT TESTS
// =========================================================================

func TestDeleteAccount_Success(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	if err := svc.DeleteAccount(context.Background(), signup.User.ID, "Abcdef1!"); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if len(users.users) != 0 {
		t.Errorf("user count after delete = %d, want 0", len(users.users))
	}
}

func TestDeleteAccount_WrongPasswordIsValidation(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	signup := mustSignup(t, svc, "A", "a@b.com", "Abcdef1!")

	err := svc.DeleteAccount(context.Background(), signup.User.ID, "Wrong-pw1!")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("DeleteAccount() error = %v, want ErrValidation", err)
	}
	if len(users.users) != 1 {
		t.Error("account was deleted despite wrong password")
	}
}

func TestDeleteAccount_AlreadyGoneIsNotFound(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	err := svc.DeleteAccount(context.Background(), 42, "Abcdef1!")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteAccount() error = %v, want ErrNotFound", err)
	}
}
