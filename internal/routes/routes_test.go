package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/search"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const adminSecret = "test-admin-secret"

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	index *search.DBIndex
}

func newTestServer(t *testing.T, ensureIndex bool) *testServer {
	t.Helper()
	cfg := &config.Config{
		DBDriver:           config.DriverSQLite,
		SQLitePath:         ":memory:",
		AdminToken:         adminSecret,
		RateLimitPerMinute: 1000,
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	index := search.NewDBIndex(db)
	if ensureIndex {
		require.NoError(t, index.EnsureIndex(t.Context()))
	}

	users := services.NewUserService(db)
	companies := services.NewCompanyService(db, index)
	punchcards := services.NewPunchcardService(db, users)

	app := fiber.New()
	Setup(app, cfg, Handlers{
		Health:     handlers.NewHealthHandler(db, index),
		Companies:  handlers.NewCompanyHandler(companies),
		Users:      handlers.NewUserHandler(users),
		Punchcards: handlers.NewPunchcardHandler(punchcards),
	})

	return &testServer{app: app, db: db, index: index}
}

type call struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func (s *testServer) do(t *testing.T, c call) (int, []byte) {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func adminJSON() map[string]string {
	return map[string]string{"admin_token": adminSecret, "Content-Type": "application/json"}
}

const gloBody = `{"title":"Glo","description":"Healthy snacks","url":"http://glo.is"}`

func (s *testServer) createCompany(t *testing.T, body string) string {
	t.Helper()
	status, raw := s.do(t, call{http.MethodPost, "/companies", body, adminJSON()})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var out dto.CreateCompanyResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func (s *testServer) createUser(t *testing.T, body string) dto.CreateUserResponse {
	t.Helper()
	status, raw := s.do(t, call{http.MethodPost, "/users", body, map[string]string{"Content-Type": "application/json"}})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var out dto.CreateUserResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (s *testServer) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func (s *testServer) indexed(t *testing.T) int {
	t.Helper()
	docs, err := s.index.Search(t.Context(), "", 0, 100)
	require.NoError(t, err)
	return len(docs)
}

func TestCreateCompany_Glo(t *testing.T) {
	s := newTestServer(t, true)

	id := s.createCompany(t, gloBody)

	status, raw := s.do(t, call{method: http.MethodGet, path: "/companies/" + id})
	require.Equal(t, http.StatusOK, status)
	var got dto.CompanyResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Glo", got.Title)
	assert.Equal(t, "Healthy snacks", got.Description)
	assert.Equal(t, "http://glo.is", got.URL)
	assert.NotContains(t, string(raw), "created")
	assert.Equal(t, 1, s.indexed(t))
}

func TestCreateCompany_DuplicateTitle(t *testing.T) {
	s := newTestServer(t, true)
	s.createCompany(t, gloBody)

	status, _ := s.do(t, call{http.MethodPost, "/companies", gloBody, adminJSON()})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, int64(1), s.count(t, &models.Company{}))
}

func TestCreateCompany_MissingField(t *testing.T) {
	s := newTestServer(t, true)

	for _, body := range []string{
		`{"description":"Healthy snacks","url":"http://glo.is"}`,
		`{"title":"Glo","url":"http://glo.is"}`,
		`{"title":"Glo","description":"Healthy snacks"}`,
		`{"title":"Glo","description":"Healthy snacks","url":"not a uri"}`,
		`{"title":"Glo","description":"Healthy snacks","url":"http://glo.is","extra":1}`,
		`{"title":`,
		``,
	} {
		status, raw := s.do(t, call{http.MethodPost, "/companies", body, adminJSON()})
		assert.Equal(t, http.StatusPreconditionFailed, status, "body %q: %s", body, raw)
	}

	assert.Zero(t, s.count(t, &models.Company{}))
	assert.Zero(t, s.indexed(t))
}

func TestCreateCompany_Unauthorized(t *testing.T) {
	s := newTestServer(t, true)

	status, _ := s.do(t, call{http.MethodPost, "/companies", `{}`, map[string]string{"Content-Type": "application/json"}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, call{http.MethodPost, "/companies", gloBody, map[string]string{
		"Content-Type": "application/json", "admin_token": "wrong",
	}})
	assert.Equal(t, http.StatusUnauthorized, status)

	assert.Zero(t, s.count(t, &models.Company{}))
}

func TestCreateCompany_NotJSON(t *testing.T) {
	s := newTestServer(t, true)

	status, _ := s.do(t, call{http.MethodPost, "/companies", gloBody, map[string]string{
		"admin_token": adminSecret, "Content-Type": "text/plain",
	}})
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
	assert.Zero(t, s.count(t, &models.Company{}))
}

func TestUpdateCompany(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createCompany(t, gloBody)
	s.createCompany(t, `{"title":"Braud","description":"Bakery","url":"http://braud.is"}`)

	status, _ := s.do(t, call{http.MethodPost, "/companies/" + id,
		`{"title":"Glo","description":"Raw food","url":"https://glo.is"}`, adminJSON()})
	assert.Equal(t, http.StatusNoContent, status)

	_, raw := s.do(t, call{method: http.MethodGet, path: "/companies/" + id})
	var got dto.CompanyResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Raw food", got.Description)

	status, raw = s.do(t, call{method: http.MethodPost, path: "/companies/search",
		body: `{"search":"raw"}`, headers: map[string]string{"Content-Type": "application/json"}})
	require.Equal(t, http.StatusOK, status)
	var docs []dto.CompanyResponse
	require.NoError(t, json.Unmarshal(raw, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	// Title held by another company.
	status, _ = s.do(t, call{http.MethodPost, "/companies/" + id,
		`{"title":"Braud","description":"x","url":"http://x.is"}`, adminJSON()})
	assert.Equal(t, http.StatusConflict, status)

	// Missing target outranks a bad body.
	status, _ = s.do(t, call{http.MethodPost, "/companies/" + uuid.NewString(), `{"title":`, adminJSON()})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, call{http.MethodPost, "/companies/" + id, `{"title":"Glo"}`, adminJSON()})
	assert.Equal(t, http.StatusPreconditionFailed, status)
}

func TestDeleteCompany(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createCompany(t, gloBody)

	status, _ := s.do(t, call{method: http.MethodDelete, path: "/companies/" + id})
	assert.Equal(t, http.StatusUnauthorized, status)

	admin := map[string]string{"admin_token": adminSecret}
	status, _ = s.do(t, call{method: http.MethodDelete, path: "/companies/" + id, headers: admin})
	assert.Equal(t, http.StatusNoContent, status)
	assert.Zero(t, s.indexed(t))

	status, _ = s.do(t, call{method: http.MethodDelete, path: "/companies/" + id, headers: admin})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/companies/" + id})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListCompanies(t *testing.T) {
	s := newTestServer(t, false)

	status, raw := s.do(t, call{method: http.MethodGet, path: "/companies"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	s.createCompany(t, gloBody)
	s.createCompany(t, `{"title":"Braud","description":"Bakery","url":"http://braud.is"}`)
	s.createCompany(t, `{"title":"Kaffi","description":"Coffee","url":"http://kaffi.is"}`)

	var docs []dto.CompanyResponse
	status, raw = s.do(t, call{method: http.MethodGet, path: "/companies?page=1&max=1"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Braud", docs[0].Title)

	status, raw = s.do(t, call{method: http.MethodGet, path: "/companies?page=-3&max=0"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &docs))
	assert.Len(t, docs, 3)
}

func TestSearchCompanies(t *testing.T) {
	s := newTestServer(t, true)
	s.createCompany(t, gloBody)
	s.createCompany(t, `{"title":"Braud","description":"Bakery","url":"http://braud.is"}`)

	var docs []dto.CompanyResponse
	status, raw := s.do(t, call{method: http.MethodPost, path: "/companies/search",
		body: `{"search":"bakery"}`, headers: map[string]string{"Content-Type": "application/json"}})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Braud", docs[0].Title)

	status, raw = s.do(t, call{method: http.MethodPost, path: "/companies/search"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &docs))
	assert.Len(t, docs, 2)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t, true)

	created := s.createUser(t, `{"name":"Anna","age":30,"gender":"f"}`)
	require.NotEmpty(t, created.Token)
	s.createUser(t, `{"name":"Bjorn"}`)

	status, raw := s.do(t, call{method: http.MethodGet, path: "/users"})
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(raw), created.Token)
	assert.NotContains(t, string(raw), "token")
	var list []dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 2)

	status, raw = s.do(t, call{method: http.MethodGet, path: "/users/" + created.ID.String()})
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(raw), created.Token)
	var one dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &one))
	assert.Equal(t, "Anna", one.Name)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/users/" + uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, status)

	for _, body := range []string{`{}`, `{"name":""}`, `{"name":"A","age":151}`, `{"name":"A","gender":"x"}`} {
		status, _ = s.do(t, call{http.MethodPost, "/users", body, map[string]string{"Content-Type": "application/json"}})
		assert.Equal(t, http.StatusPreconditionFailed, status, body)
	}
	assert.Equal(t, int64(2), s.count(t, &models.User{}))
}

func TestPunchcards(t *testing.T) {
	s := newTestServer(t, true)
	companyID := s.createCompany(t, gloBody)
	user := s.createUser(t, `{"name":"Anna"}`)

	// Unknown company with a real token.
	status, _ := s.do(t, call{method: http.MethodPost, path: "/punchcards/C1",
		headers: map[string]string{"token": user.Token}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, s.count(t, &models.Punchcard{}))

	status, _ = s.do(t, call{method: http.MethodPost, path: "/punchcards/" + companyID})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, call{method: http.MethodPost, path: "/punchcards/" + companyID,
		headers: map[string]string{"token": "T1"}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := s.do(t, call{method: http.MethodPost, path: "/punchcards/" + companyID,
		headers: map[string]string{"token": user.Token}})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var punch dto.PunchResponse
	require.NoError(t, json.Unmarshal(raw, &punch))
	assert.NotEqual(t, uuid.Nil, punch.PunchID)

	status, _ = s.do(t, call{method: http.MethodPost, path: "/punchcards/" + companyID,
		headers: map[string]string{"token": user.Token}})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, int64(1), s.count(t, &models.Punchcard{}))
}

func TestAdminReindex(t *testing.T) {
	s := newTestServer(t, true)
	s.createCompany(t, gloBody)
	require.NoError(t, s.index.Reset(t.Context()))
	require.Zero(t, s.indexed(t))

	status, _ := s.do(t, call{method: http.MethodPost, path: "/admin/reindex"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := s.do(t, call{method: http.MethodPost, path: "/admin/reindex",
		headers: map[string]string{"admin_token": adminSecret}})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"indexed":1}`, string(raw))
	assert.Equal(t, 1, s.indexed(t))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)

	status, raw := s.do(t, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, status)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DB)
	assert.Equal(t, "ok", health.Search)

	status, raw = s.do(t, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "punchcard_http_requests_total")
}

func TestCreateCompany_TakenTitleOutranksBadBody(t *testing.T) {
	s := newTestServer(t, true)
	s.createCompany(t, gloBody)

	status, _ := s.do(t, call{http.MethodPost, "/companies",
		`{"title":"Glo","description":"Healthy snacks","url":"http://glo.is","punchcard_liftime":5}`, adminJSON()})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, call{http.MethodPost, "/companies",
		`{"title":"Braud","description":"Bakery","url":"http://braud.is","punchcard_liftime":5}`, adminJSON()})
	assert.Equal(t, http.StatusPreconditionFailed, status)

	assert.Equal(t, int64(1), s.count(t, &models.Company{}))
}
