package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/auth"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/session"
)

// =========================================================================
// MOCK USER REPOSITORY
// =========================================================================

// mockUserRepo implements repository.UserRepository in memory. Like the real
// store, Create enforces username uniqueness and reports the duplicate as a
// Conflict — that behaviour is what Register's tests lean on.
type mockUserRepo struct {
	users  map[string]*model.User // keyed by id
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("username",
				fmt.Sprintf("User with username %s already exists", user.Username))
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestIdentityService(t *testing.T) (*IdentityService, *mockUserRepo, *session.Codec) {
	t.Helper()
	repo := newMockUserRepo()
	codec, err := session.New(session.Config{
		Secrets: []string{"test-secret-at-least-16-chars!!"},
	})
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	svc := NewIdentityService(repo, auth.NewPasswordServiceForTest(4), codec, testLogger())
	return svc, repo, codec
}

// =========================================================================
// REGISTER / LOGIN TESTS
// =========================================================================

func TestRegisterThenLogin_SameID(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "kody", "twixrox")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.ID == "" {
		t.Fatal("Register() did not assign an ID")
	}

	loggedIn, err := svc.Login(ctx, "kody", "twixrox")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn == nil {
		t.Fatal("Login() with correct credentials returned nil")
	}
	if loggedIn.ID != registered.ID {
		t.Errorf("Login() id = %q, want %q", loggedIn.ID, registered.ID)
	}
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	svc, repo, _ := newTestIdentityService(t)

	user, err := svc.Register(context.Background(), "kody", "twixrox")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored := repo.users[user.ID]
	if stored.PasswordHash == "twixrox" {
		t.Error("password stored in plain text")
	}
	if stored.PasswordHash == "" {
		t.Error("password hash missing")
	}
}

func TestValidateUsernameAndPassword_CountRunes(t *testing.T) {
	// "山田" is two characters in six bytes; a byte count would let it pass
	// the three-character minimum
	if msg := ValidateUsername("山田"); msg == "" {
		t.Error("ValidateUsername() accepted a two-character username")
	}
	if msg := ValidateUsername("山田太"); msg != "" {
		t.Errorf("ValidateUsername() rejected a three-character username: %q", msg)
	}
	if msg := ValidatePassword("パスワード"); msg == "" {
		t.Error("ValidatePassword() accepted a five-character password")
	}
	if msg := ValidatePassword("パスワード1"); msg != "" {
		t.Errorf("ValidatePassword() rejected a six-character password: %q", msg)
	}
}

func TestLogin_WrongPasswordAndUnknownUserAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "kody", "twixrox"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	wrongPw, err := svc.Login(ctx, "kody", "not-the-password")
	if err != nil {
		t.Fatalf("Login() wrong password error = %v", err)
	}
	unknown, err := svc.Login(ctx, "nobody", "twixrox")
	if err != nil {
		t.Fatalf("Login() unknown user error = %v", err)
	}

	// both outcomes are a bare nil — no error kind distinguishes them
	if wrongPw != nil || unknown != nil {
		t.Errorf("Login() = (%v, %v), want (nil, nil) for both failure modes", wrongPw, unknown)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, repo, _ := newTestIdentityService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "kody", "twixrox"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "kody", "different-password")
	if err == nil {
		t.Fatal("second Register() with the same username should fail")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() duplicate error = %v, want ErrConflict", err)
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "username" {
		t.Errorf("conflict field = %q, want username", appErr.Field)
	}

	if len(repo.users) != 1 {
		t.Errorf("store has %d users after duplicate registration, want 1", len(repo.users))
	}
}

// =========================================================================
// SESSION LIFECYCLE TESTS
// =========================================================================

func TestCreateSession_CookieResolvesUser(t *testing.T) {
	svc, _, codec := newTestIdentityService(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := svc.CreateSession(rec, req, "user-9", "/jokes"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	res := rec.Result()
	if res.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", res.StatusCode)
	}
	if loc := res.Header.Get("Location"); loc != "/jokes" {
		t.Errorf("Location = %q, want /jokes", loc)
	}

	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	// a follow-up request presenting the cookie resolves the same user
	next := httptest.NewRequest(http.MethodGet, "/jokes", nil)
	next.AddCookie(&http.Cookie{Name: codec.CookieName(), Value: cookies[0].Value})
	if got := svc.CurrentUserID(next); got != "user-9" {
		t.Errorf("CurrentUserID() = %q, want user-9", got)
	}
}

func TestEndSession_CookieResolvesNobody(t *testing.T) {
	svc, _, codec := newTestIdentityService(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	svc.EndSession(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", res.StatusCode)
	}
	if loc := res.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	next := httptest.NewRequest(http.MethodGet, "/jokes", nil)
	next.AddCookie(&http.Cookie{Name: codec.CookieName(), Value: cookies[0].Value})
	if got := svc.CurrentUserID(next); got != "" {
		t.Errorf("CurrentUserID() after logout = %q, want empty", got)
	}
}

func TestCurrentUser_Anonymous(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	user, err := svc.CurrentUser(context.Background(), req)
	if err != nil {
		t.Fatalf("CurrentUser() anonymous error = %v", err)
	}
	if user != nil {
		t.Errorf("CurrentUser() anonymous = %v, want nil", user)
	}
}

func TestCurrentUser_StaleSession(t *testing.T) {
	svc, _, codec := newTestIdentityService(t)

	// a validly signed session pointing at a user that doesn't exist
	token, err := codec.Encode(map[string]string{auth.UserIDKey: "ghost"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: codec.CookieName(), Value: token})

	_, err = svc.CurrentUser(context.Background(), req)
	if !errors.Is(err, ErrStaleSession) {
		t.Errorf("CurrentUser() = %v, want ErrStaleSession", err)
	}
}
