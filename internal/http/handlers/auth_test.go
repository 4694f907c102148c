package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/http/handlers"
	"github.com/ayushrkl/ratehub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake repository implementations of the handler interfaces

type fakeUsersRepo struct {
	createFn         func(ctx context.Context, name, email, passwordHash, address string, role user.Role) (user.User, error)
	getByEmailFn     func(ctx context.Context, email string) (user.User, error)
	getByIDFn        func(ctx context.Context, id string) (user.User, error)
	updatePasswordFn func(ctx context.Context, id, passwordHash string) error
	listFn           func(ctx context.Context, filter user.ListFilter) ([]user.ListItem, error)
}

func (f *fakeUsersRepo) Create(ctx context.Context, name, email, passwordHash, address string, role user.Role) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, email, passwordHash, address, role)
	}
	return user.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash, Address: address, Role: role}, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if f.updatePasswordFn != nil {
		return f.updatePasswordFn(ctx, id, passwordHash)
	}
	return nil
}

func (f *fakeUsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.ListItem, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return []user.ListItem{}, nil
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) IssueToken(userID, email string, role user.Role) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "issued-token-for-" + userID, nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var resp errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error envelope: %v body=%s", err, w.Body.String())
	}

	return resp
}

func postJSON(r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func validRegisterBody() string {
	body, _ := json.Marshal(gin.H{
		"name":     strings.Repeat("a", 25),
		"email":    "ayush@example.com",
		"password": "Password@1",
		"address":  "221B Baker Street",
	})
	return string(body)
}

func newAuthRouter(repo *fakeUsersRepo) *gin.Engine {
	h := handlers.NewAuthHandler(repo, repo, &fakeIssuer{})

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	return r
}

func TestRegisterSuccess(t *testing.T) {
	r := newAuthRouter(&fakeUsersRepo{})

	w := postJSON(r, "/auth/register", validRegisterBody(), nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		User  user.Public `json:"user"`
		Token string      `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.User.Role != user.RoleUser {
		t.Fatalf("public signup must mint role user, got %s", resp.User.Role)
	}

	if resp.Token == "" {
		t.Fatal("expected a token in the response")
	}

	if strings.Contains(w.Body.String(), "Password@1") || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password material leaked in response: %s", w.Body.String())
	}
}

func TestRegisterValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		patch gin.H
	}{
		{"short name", gin.H{"name": "Too Short"}},
		{"bad email", gin.H{"email": "not-an-email"}},
		{"weak password", gin.H{"password": "password"}},
		{"long address", gin.H{"address": strings.Repeat("a", 401)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body gin.H
			_ = json.Unmarshal([]byte(validRegisterBody()), &body)
			for k, v := range tc.patch {
				body[k] = v
			}
			raw, _ := json.Marshal(body)

			r := newAuthRouter(&fakeUsersRepo{})
			w := postJSON(r, "/auth/register", string(raw), nil)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
			}

			if resp := decodeError(t, w); resp.Error.Code != handlers.CodeValidationFailed {
				t.Fatalf("got code %s, want %s", resp.Error.Code, handlers.CodeValidationFailed)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &fakeUsersRepo{
		createFn: func(ctx context.Context, name, email, passwordHash, address string, role user.Role) (user.User, error) {
			return user.User{}, user.ErrEmailExists
		},
	}

	r := newAuthRouter(repo)
	w := postJSON(r, "/auth/register", validRegisterBody(), nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if resp := decodeError(t, w); resp.Error.Code != handlers.CodeEmailExists {
		t.Fatalf("got code %s, want %s", resp.Error.Code, handlers.CodeEmailExists)
	}
}

func TestRegisterNeverStoresPlaintext(t *testing.T) {
	var storedHash string

	repo := &fakeUsersRepo{
		createFn: func(ctx context.Context, name, email, passwordHash, address string, role user.Role) (user.User, error) {
			storedHash = passwordHash
			return user.User{ID: "u-1", Name: name, Email: email, Role: role}, nil
		},
	}

	r := newAuthRouter(repo)
	w := postJSON(r, "/auth/register", validRegisterBody(), nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201, body=%s", w.Code, w.Body.String())
	}

	if storedHash == "" || storedHash == "Password@1" {
		t.Fatalf("plaintext reached the repository: %q", storedHash)
	}

	if err := security.VerifyPassword(storedHash, "Password@1"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := security.HashPassword("Password@1")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	repo := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: "u-1", Name: "Long Enough Name For Spec", Email: email, PasswordHash: hash, Role: user.RoleUser}, nil
		},
	}

	r := newAuthRouter(repo)
	w := postJSON(r, "/auth/login", `{"email":"ayush@example.com","password":"Password@1"}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Token == "" {
		t.Fatal("expected token in login response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := security.HashPassword("Password@1")

	repo := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: "u-1", Email: email, PasswordHash: hash, Role: user.RoleUser}, nil
		},
	}

	r := newAuthRouter(repo)
	w := postJSON(r, "/auth/login", `{"email":"ayush@example.com","password":"Wrong@1234"}`, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401, body=%s", w.Code, w.Body.String())
	}

	if resp := decodeError(t, w); resp.Error.Code != handlers.CodeInvalidCredentials {
		t.Fatalf("got code %s, want %s", resp.Error.Code, handlers.CodeInvalidCredentials)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	r := newAuthRouter(&fakeUsersRepo{})
	w := postJSON(r, "/auth/login", `{"email":"nobody@example.com","password":"Password@1"}`, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401, body=%s", w.Code, w.Body.String())
	}
}
