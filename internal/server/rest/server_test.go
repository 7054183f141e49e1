package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret  = "test-secret"
	aliceID = "11111111-1111-1111-1111-111111111111"
	bobID   = "22222222-2222-2222-2222-222222222222"
	noteID  = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

type fakeUsers struct {
	signup func(email, password string) (*models.User, error)
	login  func(email, password string) (*services.LoginResult, error)
}

func (f *fakeUsers) Signup(_ context.Context, email, password string) (*models.User, error) {
	return f.signup(email, password)
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	return f.login(email, password)
}

// fakeNotes records the identity of the last call and answers from a
// single stored note owned by alice.
type fakeNotes struct {
	caller auth.Identity
	note   *models.Note
	err    error
	query  string
	target string
}

func (f *fakeNotes) lookup(id auth.Identity, nid string) (*models.Note, error) {
	f.caller = id
	if f.err != nil {
		return nil, f.err
	}
	if nid != f.note.ID || id.UserID != f.note.OwnerID {
		return nil, fmt.Errorf("%w: note", common.ErrorNotFound)
	}
	return f.note, nil
}

func (f *fakeNotes) List(_ context.Context, id auth.Identity) ([]*models.Note, error) {
	f.caller = id
	if f.err != nil {
		return nil, f.err
	}
	if id.UserID == f.note.OwnerID {
		return []*models.Note{f.note}, nil
	}
	return []*models.Note{}, nil
}

func (f *fakeNotes) Get(_ context.Context, id auth.Identity, nid string) (*models.Note, error) {
	return f.lookup(id, nid)
}

func (f *fakeNotes) Create(_ context.Context, id auth.Identity, title, content string) (*models.Note, error) {
	f.caller = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Note{ID: noteID, OwnerID: id.UserID, Title: title, Content: content}, nil
}

func (f *fakeNotes) Update(_ context.Context, id auth.Identity, nid, title, content string) (*models.Note, error) {
	n, err := f.lookup(id, nid)
	if err != nil {
		return nil, err
	}
	u := *n
	u.Title, u.Content = title, content
	return &u, nil
}

func (f *fakeNotes) Delete(_ context.Context, id auth.Identity, nid string) error {
	_, err := f.lookup(id, nid)
	return err
}

func (f *fakeNotes) Share(_ context.Context, id auth.Identity, nid, target string) (*models.Note, error) {
	f.target = target
	n, err := f.lookup(id, nid)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("%w: target user is missing", common.ErrorConflict)
	}
	if n.IsSharedWith(target) {
		return nil, fmt.Errorf("%w: note is already shared with this user", common.ErrorConflict)
	}
	s := *n
	s.SharedWith = append([]string{}, target)
	return &s, nil
}

func (f *fakeNotes) Search(_ context.Context, id auth.Identity, q string) ([]*models.Note, error) {
	f.caller, f.query = id, q
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", common.ErrorValidation)
	}
	return []*models.Note{f.note}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newTestServer(t *testing.T) (*HTTPServer, *fakeUsers, *fakeNotes) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		EndpointAddrHTTP:   "127.0.0.1:0",
		SecretKey:          secret,
		CORSAllowedOrigins: []string{"https://app.example.com"},
		ShutdownTimeout:    time.Second,
	}
	us := &fakeUsers{}
	ns := &fakeNotes{note: &models.Note{ID: noteID, OwnerID: aliceID, Title: "T", Content: "C", SharedWith: []string{}}}
	return NewHTTPServer(cfg, logging.Nop{}, us, ns, fakePinger{}), us, ns
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(auth.Identity{UserID: userID, Email: userID + "@example.com"}, []byte(secret), time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	out := map[string]any{}
	if resp.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	}
	return resp, out
}

func TestSignup(t *testing.T) {
	s, us, _ := newTestServer(t)
	h := s.Handler()

	us.signup = func(email, password string) (*models.User, error) {
		if email == "taken@example.com" {
			return nil, common.ErrorAlreadyExists
		}
		if len(password) < common.MinPasswordLength {
			return nil, fmt.Errorf("%w: password too short", common.ErrorValidation)
		}
		return &models.User{ID: aliceID, Email: email}, nil
	}

	resp, body := do(t, h, http.MethodPost, "/users/signup", "", gin.H{"email": "a@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, resp.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, aliceID, user["id"])
	assert.Equal(t, []any{}, user["notes"])
	assert.NotContains(t, user, "passwordHash")

	resp, body = do(t, h, http.MethodPost, "/users/signup", "", gin.H{"email": "taken@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "User exists already, please login instead.", body["message"])

	resp, _ = do(t, h, http.MethodPost, "/users/signup", "", gin.H{"email": "a@example.com", "password": "123"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp, _ = do(t, h, http.MethodPost, "/users/signup", "", gin.H{"email": "a@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, "missing password fails binding")
}

func TestLogin(t *testing.T) {
	s, us, _ := newTestServer(t)
	h := s.Handler()

	us.login = func(email, password string) (*services.LoginResult, error) {
		if password != "secret1" {
			return nil, common.ErrorUnauthorized
		}
		return &services.LoginResult{UserID: aliceID, Email: email, Token: "tok"}, nil
	}

	resp, body := do(t, h, http.MethodPost, "/users/login", "", gin.H{"email": "a@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, map[string]any{"userId": aliceID, "email": "a@example.com", "token": "tok"}, body)

	resp, body = do(t, h, http.MethodPost, "/users/login", "", gin.H{"email": "a@example.com", "password": "nope00"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Invalid credentials, could not log you in.", body["message"])
}

func TestAuthentication(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	expired, err := auth.GenerateToken(auth.Identity{UserID: aliceID}, []byte(secret), -time.Minute)
	require.NoError(t, err)
	forged, err := auth.GenerateToken(auth.Identity{UserID: aliceID}, []byte("other"), time.Hour)
	require.NoError(t, err)

	for name, bearer := range map[string]string{
		"missing":   "",
		"garbage":   "abc.def.ghi",
		"expired":   expired,
		"bad-sig":   forged,
		"blank-tok": " ",
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := do(t, h, http.MethodGet, "/notes", bearer, nil)
			assert.Equal(t, http.StatusForbidden, resp.Code)
			assert.Equal(t, "Authentication failed!", body["message"])
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Token "+token(t, aliceID))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code, "non-bearer scheme")
}

func TestNotes_IdentityComesFromToken(t *testing.T) {
	s, _, ns := newTestServer(t)
	h := s.Handler()

	resp, body := do(t, h, http.MethodGet, "/notes", token(t, aliceID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, aliceID, ns.caller.UserID)
	assert.Len(t, body["notes"], 1)

	resp, body = do(t, h, http.MethodGet, "/notes", token(t, bobID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, bobID, ns.caller.UserID)
	assert.Equal(t, []any{}, body["notes"])
}

func TestNotes_CRUD(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()
	alice := token(t, aliceID)

	resp, body := do(t, h, http.MethodPost, "/notes", alice, gin.H{"title": "New", "content": "Body"})
	require.Equal(t, http.StatusCreated, resp.Code)
	note := body["note"].(map[string]any)
	assert.Equal(t, aliceID, note["ownerId"])
	assert.Equal(t, []any{}, note["sharedWith"])

	resp, _ = do(t, h, http.MethodPost, "/notes", alice, gin.H{"title": "New"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp, body = do(t, h, http.MethodGet, "/notes/"+noteID, alice, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "T", body["note"].(map[string]any)["title"])

	resp, body = do(t, h, http.MethodPatch, "/notes/"+noteID, alice, gin.H{"title": "T2", "content": "C2"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "T2", body["note"].(map[string]any)["title"])

	resp, body = do(t, h, http.MethodDelete, "/notes/"+noteID, alice, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Deleted note.", body["message"])
}

func TestNotes_NonOwnerSeesNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()
	bob := token(t, bobID)

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/notes/" + noteID, nil},
		{http.MethodPatch, "/notes/" + noteID, gin.H{"title": "x", "content": "y"}},
		{http.MethodDelete, "/notes/" + noteID, nil},
		{http.MethodPost, "/notes/" + noteID + "/share", gin.H{"sharedWith": bobID}},
	} {
		resp, body := do(t, h, tc.method, tc.path, bob, tc.body)
		assert.Equal(t, http.StatusNotFound, resp.Code, "%s %s", tc.method, tc.path)
		assert.NotContains(t, body, "details")
	}
}

func TestShare(t *testing.T) {
	s, _, ns := newTestServer(t)
	h := s.Handler()
	alice := token(t, aliceID)

	resp, body := do(t, h, http.MethodPost, "/notes/"+noteID+"/share", alice, gin.H{"sharedWith": bobID})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Note shared successfully", body["message"])
	assert.Equal(t, []any{bobID}, body["note"].(map[string]any)["sharedWith"])
	assert.Equal(t, bobID, ns.target)

	ns.note.SharedWith = []string{bobID}
	resp, body = do(t, h, http.MethodPost, "/notes/"+noteID+"/share", alice, gin.H{"sharedWith": bobID})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, body["details"], "already shared")

	resp, body = do(t, h, http.MethodPost, "/notes/"+noteID+"/share", alice, gin.H{})
	assert.Equal(t, http.StatusConflict, resp.Code, "missing target is a conflict")
	assert.Contains(t, body["details"], "target user is missing")
	assert.Equal(t, "", ns.target)
}

func TestSearch(t *testing.T) {
	s, _, ns := newTestServer(t)
	h := s.Handler()
	alice := token(t, aliceID)

	resp, body := do(t, h, http.MethodGet, "/notes/search?q=grocery+list", alice, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "grocery list", ns.query)
	assert.Len(t, body["notes"], 1)

	resp, _ = do(t, h, http.MethodGet, "/notes/search", alice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestListUserNotes_PathMustMatchIdentity(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	resp, body := do(t, h, http.MethodGet, "/users/"+aliceID+"/notes", token(t, aliceID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, body["notes"], 1)

	resp, _ = do(t, h, http.MethodGet, "/users/"+aliceID+"/notes", token(t, bobID), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp, _ = do(t, h, http.MethodGet, "/users/"+aliceID+"/notes", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	s, _, ns := newTestServer(t)
	h := s.Handler()
	ns.err = errors.New(`db error: pq: relation "notes" does not exist`)

	resp, body := do(t, h, http.MethodGet, "/notes", token(t, aliceID), nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, map[string]any{"message": "An unknown error occurred!"}, body)
}

func TestNoRouteAndHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, body := do(t, s.Handler(), http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Could not find this route.", body["message"])

	resp, body = do(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", body["status"])

	s.db = fakePinger{err: errors.New("down")}
	resp, body = do(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	// browsers send the requested header names lowercased
	for _, headers := range []string{"authorization", "authorization,content-type"} {
		req := httptest.NewRequest(http.MethodOptions, "/notes", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		req.Header.Set("Access-Control-Request-Headers", headers)
		resp := httptest.NewRecorder()
		s.Handler().ServeHTTP(resp, req)

		assert.Equal(t, "https://app.example.com", resp.Header().Get("Access-Control-Allow-Origin"), headers)
		assert.Equal(t, headers, resp.Header().Get("Access-Control-Allow-Headers"), headers)
		assert.Less(t, resp.Code, 300, headers)
	}
}

func TestBindingErrorDetails(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()
	alice := token(t, aliceID)

	resp, body := do(t, h, http.MethodPost, "/notes", alice, gin.H{"title": "New"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "validation error: content is required", body["details"])

	resp, body = do(t, h, http.MethodPost, "/users/signup", "", gin.H{})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "validation error: email is required; password is required", body["details"])

	resp, body = do(t, h, http.MethodPost, "/notes", alice, "not an object")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "validation error: request body must be a JSON object", body["details"])
	assert.NotContains(t, body["details"], "noteRequest")
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: x", common.ErrorValidation), http.StatusUnprocessableEntity},
		{common.ErrTokenExpired, http.StatusForbidden},
		{fmt.Errorf("%w: sig", common.ErrInvalidToken), http.StatusForbidden},
		{common.ErrorUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("error loading note: %w", common.ErrorNotFound), http.StatusNotFound},
		{fmt.Errorf("error creating user: %w", common.ErrorAlreadyExists), http.StatusUnprocessableEntity},
		{fmt.Errorf("error sharing note: %w", common.ErrorConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg, _ := translateError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.NotEmpty(t, msg)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s, _, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "Run returned error on graceful stop")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.address = "127.0.0.1:99999"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.Error(t, s.Run(ctx))
}
