package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck-go/internal/handler"
	"github.com/taskdeck/taskdeck-go/internal/repository"
	"github.com/taskdeck/taskdeck-go/internal/service"
	"github.com/taskdeck/taskdeck-go/internal/testutil"
	"github.com/taskdeck/taskdeck-go/pkg/model"
)

const testSecret = "test-secret"

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.NewTestDB(t)

	authSvc := service.NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour)
	taskSvc := service.NewTaskService(repository.NewTaskRepository(db))

	return handler.NewRouter(handler.RouterConfig{
		Auth:      handler.NewAuthHandler(authSvc),
		Tasks:     handler.NewTaskHandler(taskSvc),
		JWTSecret: testSecret,
	})
}

func doJSON(t *testing.T, api http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func signup(t *testing.T, api http.Handler, email string) model.AuthResponse {
	t.Helper()
	rec := doJSON(t, api, http.MethodPost, "/api/auth/signup", "",
		`{"email":"`+email+`","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[model.AuthResponse](t, rec)
}

func TestEndToEndScenario(t *testing.T) {
	api := newAPI(t)
	auth := signup(t, api, "a@x.com")
	token := auth.Token

	// Create two tasks; defaults must apply.
	rec := doJSON(t, api, http.MethodPost, "/api/tasks", token, `{"title":"T1","manual_order":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create T1 status = %d, body %s", rec.Code, rec.Body.String())
	}
	t1 := decode[model.TaskResponse](t, rec).Data
	if t1.IsCompleted {
		t.Error("new task is_completed = true, want false")
	}
	if t1.Priority != model.PriorityMedium {
		t.Errorf("new task priority = %q, want Medium", t1.Priority)
	}

	rec = doJSON(t, api, http.MethodPost, "/api/tasks", token, `{"title":"T2","manual_order":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create T2 status = %d", rec.Code)
	}
	t2 := decode[model.TaskResponse](t, rec).Data

	// Reorder: swap the two tasks; response must be the canonical order.
	rec = doJSON(t, api, http.MethodPatch, "/api/tasks/reorder", token,
		`{"tasks":[{"id":"`+t1.ID+`","manual_order":2},{"id":"`+t2.ID+`","manual_order":1}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder status = %d, body %s", rec.Code, rec.Body.String())
	}
	list := decode[model.TaskListResponse](t, rec)
	if list.Count != 2 || len(list.Data) != 2 {
		t.Fatalf("reorder returned %d tasks (count %d), want 2", len(list.Data), list.Count)
	}
	if list.Data[0].ID != t2.ID || list.Data[1].ID != t1.ID {
		t.Errorf("reorder order = [%s %s], want [T2 T1]", list.Data[0].Title, list.Data[1].Title)
	}

	// No completed tasks yet.
	rec = doJSON(t, api, http.MethodGet, "/api/tasks?is_completed=true", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list = decode[model.TaskListResponse](t, rec)
	if list.Count != 0 || len(list.Data) != 0 {
		t.Errorf("completed list = %d tasks (count %d), want none", len(list.Data), list.Count)
	}

	// Complete T1, then the completed filter returns exactly T1.
	rec = doJSON(t, api, http.MethodPatch, "/api/tasks/"+t1.ID, token, `{"is_completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodGet, "/api/tasks?is_completed=true", token, "")
	list = decode[model.TaskListResponse](t, rec)
	if list.Count != 1 || len(list.Data) != 1 || list.Data[0].ID != t1.ID {
		t.Errorf("completed list = %+v (count %d), want only T1", list.Data, list.Count)
	}
}

func TestCredentialSecrecy(t *testing.T) {
	api := newAPI(t)
	signup(t, api, "a@x.com")

	wrongPassword := doJSON(t, api, http.MethodPost, "/api/auth/login", "",
		`{"email":"a@x.com","password":"wrong-password"}`)
	unknownEmail := doJSON(t, api, http.MethodPost, "/api/auth/login", "",
		`{"email":"nobody@x.com","password":"password123"}`)

	if wrongPassword.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", wrongPassword.Code)
	}
	if wrongPassword.Code != unknownEmail.Code {
		t.Errorf("status codes differ: %d vs %d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("error bodies differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestSignupValidationAndDuplicates(t *testing.T) {
	api := newAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/auth/signup", "", `{"email":"bad","password":"password123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad email status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, api, http.MethodPost, "/api/auth/signup", "", `{"email":"a@x.com","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d, want 400", rec.Code)
	}

	signup(t, api, "a@x.com")
	rec = doJSON(t, api, http.MethodPost, "/api/auth/signup", "", `{"email":"a@x.com","password":"password123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate email status = %d, want 400", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/user"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/some-id"},
		{http.MethodPatch, "/api/tasks/some-id"},
		{http.MethodDelete, "/api/tasks/some-id"},
		{http.MethodPatch, "/api/tasks/reorder"},
	} {
		rec := doJSON(t, api, tc.method, tc.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestNotOwnedTaskLooksMissing(t *testing.T) {
	api := newAPI(t)
	alice := signup(t, api, "alice@x.com")
	bob := signup(t, api, "bob@x.com")

	rec := doJSON(t, api, http.MethodPost, "/api/tasks", alice.Token, `{"title":"secret","manual_order":1}`)
	task := decode[model.TaskResponse](t, rec).Data

	get := doJSON(t, api, http.MethodGet, "/api/tasks/"+task.ID, bob.Token, "")
	missing := doJSON(t, api, http.MethodGet, "/api/tasks/truly-missing-id", bob.Token, "")

	if get.Code != http.StatusNotFound {
		t.Errorf("non-owner get status = %d, want 404", get.Code)
	}
	if get.Code != missing.Code || get.Body.String() != missing.Body.String() {
		t.Error("non-owned and missing tasks are distinguishable")
	}

	if rec := doJSON(t, api, http.MethodPatch, "/api/tasks/"+task.ID, bob.Token, `{"title":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("non-owner patch status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, api, http.MethodDelete, "/api/tasks/"+task.ID, bob.Token, ""); rec.Code != http.StatusNotFound {
		t.Errorf("non-owner delete status = %d, want 404", rec.Code)
	}
}

func TestPatchWithNoFieldsIsError(t *testing.T) {
	api := newAPI(t)
	auth := signup(t, api, "a@x.com")

	rec := doJSON(t, api, http.MethodPost, "/api/tasks", auth.Token, `{"title":"T","manual_order":1}`)
	task := decode[model.TaskResponse](t, rec).Data

	rec = doJSON(t, api, http.MethodPatch, "/api/tasks/"+task.ID, auth.Token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, api, http.MethodPatch, "/api/tasks/"+task.ID, auth.Token, `{"unknown_field":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown-field patch status = %d, want 400", rec.Code)
	}
}

func TestReorderMalformedPayload(t *testing.T) {
	api := newAPI(t)
	auth := signup(t, api, "a@x.com")

	rec := doJSON(t, api, http.MethodPatch, "/api/tasks/reorder", auth.Token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing tasks array status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, api, http.MethodPatch, "/api/tasks/reorder", auth.Token, `{"tasks":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-array tasks status = %d, want 400", rec.Code)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	api := newAPI(t)
	auth := signup(t, api, "a@x.com")

	rec := doJSON(t, api, http.MethodPost, "/api/tasks", auth.Token, `{"title":"doomed","manual_order":1}`)
	task := decode[model.TaskResponse](t, rec).Data

	rec = doJSON(t, api, http.MethodDelete, "/api/tasks/"+task.ID, auth.Token, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("delete body = %q, want empty", rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodGet, "/api/tasks/"+task.ID, auth.Token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestListRejectsBadParameters(t *testing.T) {
	api := newAPI(t)
	auth := signup(t, api, "a@x.com")

	for _, path := range []string{
		"/api/tasks?sort_by=password_hash",
		"/api/tasks?sort_order=sideways",
		"/api/tasks?is_completed=maybe",
		"/api/tasks?priority=Urgent",
		"/api/tasks?limit=0",
		"/api/tasks?limit=abc",
		"/api/tasks?offset=-1",
	} {
		rec := doJSON(t, api, http.MethodGet, path, auth.Token, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestCurrentUser(t *testing.T) {
	api := newAPI(t)
	auth := signup(t, api, "a@x.com")

	rec := doJSON(t, api, http.MethodGet, "/api/auth/user", auth.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("current user status = %d", rec.Code)
	}
	resp := decode[struct {
		Data model.UserResponse `json:"data"`
	}](t, rec)
	if resp.Data.ID != auth.Data.ID || resp.Data.Email != "a@x.com" {
		t.Errorf("current user = %+v, want the signed-up user", resp.Data)
	}
}
