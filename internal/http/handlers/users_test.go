package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayushrkl/ratehub/internal/auth"
	"github.com/ayushrkl/ratehub/internal/domain/rating"
	"github.com/ayushrkl/ratehub/internal/domain/store"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/http/handlers"
	"github.com/ayushrkl/ratehub/internal/http/middlewares"
	"github.com/ayushrkl/ratehub/internal/security"
	"github.com/gin-gonic/gin"
)

type fakeTokenVerifier struct {
	claims *auth.Claims
}

func (f *fakeTokenVerifier) VerifyToken(token string) (*auth.Claims, error) {
	return f.claims, nil
}

type fakeStoreBrowser struct {
	browseFn func(ctx context.Context, userID string, search *string) ([]store.BrowseItem, error)
}

func (f *fakeStoreBrowser) BrowseForUser(ctx context.Context, userID string, search *string) ([]store.BrowseItem, error) {
	return f.browseFn(ctx, userID, search)
}

type fakeRatingSubmitter struct {
	upsertFn func(ctx context.Context, userID, storeID string, score int) (rating.Rating, bool, error)
}

func (f *fakeRatingSubmitter) Upsert(ctx context.Context, userID, storeID string, score int) (rating.Rating, bool, error) {
	return f.upsertFn(ctx, userID, storeID, score)
}

// bearer satisfies the auth middleware; the fake verifier supplies the claims.
var bearer = map[string]string{"Authorization": "Bearer token"}

// newUsersRouter mounts the user routes behind the real auth middleware, with
// a verifier that always resolves to the given identity.
func newUsersRouter(h *handlers.UsersHandler, userID string, role user.Role) *gin.Engine {
	guard := middlewares.NewAuthMiddleware(&fakeTokenVerifier{
		claims: &auth.Claims{UserID: userID, Email: "u@example.com", Role: string(role)},
	})

	r := gin.New()
	g := r.Group("/users", guard.RequireAuth(), guard.RequireRole(user.RoleUser))
	g.PUT("/change-password", h.ChangePassword)
	g.GET("/stores", h.BrowseStores)
	g.POST("/ratings", h.SubmitRating)

	return r
}

func putJSON(r *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestSubmitRatingOutOfRange(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeStoreBrowser{}, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	// 0 doubles as the missing-field value and must get the same answer.
	for _, score := range []int{0, -1, 6, 100} {
		body, _ := json.Marshal(gin.H{"store_id": "s-1", "rating": score})
		w := postJSON(r, "/users/ratings", string(body), bearer)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("rating %d: got %d, want 400, body=%s", score, w.Code, w.Body.String())
		}

		if resp := decodeError(t, w); resp.Error.Code != handlers.CodeInvalidRating {
			t.Fatalf("rating %d: got code %s, want %s", score, resp.Error.Code, handlers.CodeInvalidRating)
		}
	}
}

func TestSubmitRatingOmittedScore(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeStoreBrowser{}, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := postJSON(r, "/users/ratings", `{"store_id":"s-1"}`, bearer)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if resp := decodeError(t, w); resp.Error.Code != handlers.CodeInvalidRating {
		t.Fatalf("got code %s, want %s", resp.Error.Code, handlers.CodeInvalidRating)
	}
}

func TestSubmitRatingBindErrorNamesWireField(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeStoreBrowser{}, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := postJSON(r, "/users/ratings", `{"rating":3}`, bearer)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Error struct {
			Details struct {
				Fields []handlers.FieldError `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "store_id" {
		t.Fatalf("expected the json tag store_id in details, got %+v, body=%s", resp.Error.Details.Fields, w.Body.String())
	}
}

func TestSubmitRatingFirstTime(t *testing.T) {
	ratings := &fakeRatingSubmitter{
		upsertFn: func(ctx context.Context, userID, storeID string, score int) (rating.Rating, bool, error) {
			if userID != "u-1" || storeID != "s-1" || score != 5 {
				t.Fatalf("unexpected upsert args: %s %s %d", userID, storeID, score)
			}
			return rating.Rating{UserID: userID, StoreID: storeID, Rating: score}, true, nil
		},
	}

	h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeStoreBrowser{}, ratings)
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := postJSON(r, "/users/ratings", `{"store_id":"s-1","rating":5}`, bearer)

	if w.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201, body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitRatingRevision(t *testing.T) {
	ratings := &fakeRatingSubmitter{
		upsertFn: func(ctx context.Context, userID, storeID string, score int) (rating.Rating, bool, error) {
			return rating.Rating{UserID: userID, StoreID: storeID, Rating: score}, false, nil
		},
	}

	h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeStoreBrowser{}, ratings)
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := postJSON(r, "/users/ratings", `{"store_id":"s-1","rating":3}`, bearer)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Message != "Rating updated" {
		t.Fatalf("got message %q, want %q", resp.Message, "Rating updated")
	}
}

func TestSubmitRatingUnknownStore(t *testing.T) {
	ratings := &fakeRatingSubmitter{
		upsertFn: func(ctx context.Context, userID, storeID string, score int) (rating.Rating, bool, error) {
			return rating.Rating{}, false, store.ErrNotFound
		},
	}

	h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeStoreBrowser{}, ratings)
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := postJSON(r, "/users/ratings", `{"store_id":"missing","rating":4}`, bearer)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestBrowseStoresPassesSearchAndIdentity(t *testing.T) {
	three := 3
	stores := &fakeStoreBrowser{
		browseFn: func(ctx context.Context, userID string, search *string) ([]store.BrowseItem, error) {
			if userID != "u-1" {
				t.Fatalf("got userID %s, want u-1", userID)
			}

			if search == nil || *search != "coffee" {
				t.Fatalf("search not forwarded: %v", search)
			}

			return []store.BrowseItem{
				{ID: "s-1", Name: "Corner Coffee Roasters Ltd", Address: "1 Bean Street", AverageRating: 4.5, UserRating: &three},
				{ID: "s-2", Name: "Uptown Coffee and Bakery Co", Address: "9 Crumb Road", AverageRating: 0},
			}, nil
		},
	}

	h := handlers.NewUsersHandler(&fakeUsersRepo{}, stores, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/users/stores?search=coffee", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var items []store.BrowseItem

	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].UserRating == nil || *items[0].UserRating != 3 {
		t.Fatalf("caller's own rating lost: %+v", items[0])
	}

	if items[1].UserRating != nil {
		t.Fatalf("unrated store must carry null userRating: %+v", items[1])
	}
}

func TestChangePasswordWrongOld(t *testing.T) {
	hash, _ := security.HashPassword("Correct@1")

	repo := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, PasswordHash: hash, Role: user.RoleUser}, nil
		},
	}

	h := handlers.NewUsersHandler(repo, &fakeStoreBrowser{}, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := putJSON(r, "/users/change-password", `{"oldPassword":"Wrong@123","newPassword":"Fresh@123"}`, bearer)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}

	resp := decodeError(t, w)

	if resp.Error.Code != handlers.CodeInvalidCredentials || resp.Error.Message != "Old password incorrect" {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestChangePasswordWeakNew(t *testing.T) {
	hash, _ := security.HashPassword("Correct@1")

	repo := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, PasswordHash: hash, Role: user.RoleUser}, nil
		},
	}

	h := handlers.NewUsersHandler(repo, &fakeStoreBrowser{}, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := putJSON(r, "/users/change-password", `{"oldPassword":"Correct@1","newPassword":"weak"}`, bearer)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if resp := decodeError(t, w); resp.Error.Code != handlers.CodeValidationFailed {
		t.Fatalf("got code %s, want %s", resp.Error.Code, handlers.CodeValidationFailed)
	}
}

func TestChangePasswordSuccessRehashes(t *testing.T) {
	hash, _ := security.HashPassword("Correct@1")

	var newHash string

	repo := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, PasswordHash: hash, Role: user.RoleUser}, nil
		},
		updatePasswordFn: func(ctx context.Context, id, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}

	h := handlers.NewUsersHandler(repo, &fakeStoreBrowser{}, &fakeRatingSubmitter{})
	r := newUsersRouter(h, "u-1", user.RoleUser)

	w := putJSON(r, "/users/change-password", `{"oldPassword":"Correct@1","newPassword":"Fresh@123"}`, bearer)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if newHash == "" || newHash == "Fresh@123" {
		t.Fatalf("expected a bcrypt hash to reach the repository, got %q", newHash)
	}

	if err := security.VerifyPassword(newHash, "Fresh@123"); err != nil {
		t.Fatalf("stored hash does not verify against new password: %v", err)
	}
}
