package questions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/questions"
	"github.com/examdesk/examdesk/internal/shared"
)

type stubRepo struct {
	existing map[int64]bool
}

func (s *stubRepo) Get(ctx context.Context, scope authz.Scope, id int64) (*questions.Question, error) {
	if !s.existing[id] {
		return nil, shared.ErrNotFound
	}
	return &questions.Question{ID: id}, nil
}

func (s *stubRepo) List(ctx context.Context, scope authz.Scope, courseID int64, page shared.Pagination) ([]questions.Question, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Create(ctx context.Context, q *questions.Question) error {
	q.ID = 1
	return nil
}

func (s *stubRepo) Update(ctx context.Context, scope authz.Scope, q *questions.Question) (int64, error) {
	if s.existing[q.ID] {
		return 1, nil
	}
	return 0, nil
}

func (s *stubRepo) UpdateFields(ctx context.Context, scope authz.Scope, id int64, fields questions.BulkFields) (int64, error) {
	if s.existing[id] {
		return 1, nil
	}
	return 0, nil
}

func (s *stubRepo) DeleteOne(ctx context.Context, scope authz.Scope, id int64) (int64, error) {
	if s.existing[id] {
		delete(s.existing, id)
		return 1, nil
	}
	return 0, nil
}

func orgPtr(v int64) *int64 { return &v }

func testRouter(t *testing.T, repo *stubRepo, p authz.Principal) http.Handler {
	t.Helper()
	handler := questions.NewHandler(nil, questions.NewService(repo), authz.Middleware{}, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/questions", handler.MountRoutes)
	return r
}

func instructor() authz.Principal {
	return authz.Principal{ID: 3, Role: authz.RoleInstructor, OrgID: orgPtr(5)}
}

func TestBulkDeleteMixedIDs(t *testing.T) {
	repo := &stubRepo{existing: map[int64]bool{1: true}}
	router := testRouter(t, repo, instructor())

	body := strings.NewReader(`{"ids": [1, 2, "x", 999]}`)
	req := httptest.NewRequest(http.MethodPost, "/questions/bulk-delete", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Processed    int      `json:"processed"`
		Deleted      []int64  `json:"deleted"`
		DeletedCount int      `json:"deletedCount"`
		NotFound     []int64  `json:"notFound"`
		InvalidIDs   []string `json:"invalidIds"`
		Success      bool     `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 4, resp.Processed)
	require.Equal(t, []int64{1}, resp.Deleted)
	require.Equal(t, 1, resp.DeletedCount)
	require.Equal(t, []int64{2, 999}, resp.NotFound)
	require.Equal(t, []string{"x"}, resp.InvalidIDs)
	require.True(t, resp.Success)
}

func TestBulkDeleteRejectsEmptyAndMalformed(t *testing.T) {
	for _, payload := range []string{`{"ids": []}`, `{"ids": "abc"}`, `{`, `{}`} {
		repo := &stubRepo{existing: map[int64]bool{1: true}}
		router := testRouter(t, repo, instructor())

		req := httptest.NewRequest(http.MethodPost, "/questions/bulk-delete", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", payload)
	}
}

func TestBulkDeleteDeniedForStudent(t *testing.T) {
	repo := &stubRepo{existing: map[int64]bool{1: true}}
	router := testRouter(t, repo, authz.Principal{ID: 9, Role: authz.RoleStudent, OrgID: orgPtr(5)})

	req := httptest.NewRequest(http.MethodPost, "/questions/bulk-delete", strings.NewReader(`{"ids":[1]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBulkUpdateRequiresFields(t *testing.T) {
	repo := &stubRepo{existing: map[int64]bool{1: true}}
	router := testRouter(t, repo, instructor())

	req := httptest.NewRequest(http.MethodPatch, "/questions/bulk", strings.NewReader(`{"ids":[1],"fields":{}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkUpdateAppliesFields(t *testing.T) {
	repo := &stubRepo{existing: map[int64]bool{1: true, 2: true}}
	router := testRouter(t, repo, instructor())

	req := httptest.NewRequest(http.MethodPatch, "/questions/bulk", strings.NewReader(`{"ids":[1,2,7],"fields":{"marks":10}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UpdatedCount int     `json:"updatedCount"`
		NotFound     []int64 `json:"notFound"`
		Success      bool    `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.UpdatedCount)
	require.Equal(t, []int64{7}, resp.NotFound)
	require.True(t, resp.Success)
}
