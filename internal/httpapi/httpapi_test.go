package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientDirectory/internal/auth"
	"clientDirectory/internal/config"
	"clientDirectory/internal/events"
	"clientDirectory/internal/testutil"
	"clientDirectory/models"
	"clientDirectory/repository"
)

const testSecret = "http-test-secret"

type testEnv struct {
	t         *testing.T
	router    *gin.Engine
	users     *repository.UserRepository
	companies *repository.CompanyRepository
	clients   *repository.ClientRepository
	recorder  *events.Recorder

	admin      *models.User
	user       *models.User
	adminToken string
	userToken  string
}

func newTestEnv(t *testing.T, httpCfg config.HTTPConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	g, sqlDB := testutil.OpenGorm(t, "http_"+t.Name())

	env := &testEnv{
		t:         t,
		users:     repository.NewUserRepository(g),
		companies: repository.NewCompanyRepository(g),
		clients:   repository.NewClientRepository(g),
		recorder:  &events.Recorder{},
	}
	env.router = NewRouter(Deps{
		Users:     env.users,
		Companies: env.companies,
		Clients:   env.clients,
		Links:     repository.NewClientUserRepository(g),
		DB:        sqlDB,
		Publisher: env.recorder,
		Auth:      config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
		HTTP:      httpCfg,
	})

	ctx := context.Background()
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	env.admin, err = env.users.Create(ctx, &models.User{Username: "root", Email: "root@example.com", PasswordHash: hash, Role: models.RoleAdmin})
	require.NoError(t, err)
	env.user, err = env.users.Create(ctx, &models.User{Username: "plain", Email: "plain@example.com", PasswordHash: hash})
	require.NoError(t, err)
	env.adminToken = env.token(env.admin)
	env.userToken = env.token(env.user)
	return env
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	tok, _, err := auth.IssueToken(testSecret, time.Hour, u)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data  T   `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func (e *testEnv) createCompany(name string, employees int, industry, revenue string) models.Company {
	e.t.Helper()
	w := e.do(http.MethodPost, "/companies", e.adminToken, gin.H{
		"name": name, "employees": employees, "industry": industry, "revenue": revenue,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Company](e.t, w)
}

func (e *testEnv) createClient(name string, ownerID, companyID int64) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.do(http.MethodPost, "/clients", e.adminToken, gin.H{
		"name": name, "email": name + "@clients.io", "phone": "+1 555 0100",
		"user_id": ownerID, "company_id": companyID,
	})
}

func TestHealthMetricsAndDocs(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})

	w := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = env.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/swagger-ui/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/clients/{id}/users/{userID}"`)
	assert.Contains(t, w.Body.String(), `"BearerAuth"`)

	w = env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `directory_http_requests_total{method="GET",route="/healthz",status="200"} 1`)

	w = env.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})

	w := env.do(http.MethodPost, "/auth/login", "", gin.H{"username": "root", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/auth/login", "", gin.H{"username": "ghost", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/auth/login", "", gin.H{"username": "root"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/auth/login", "", gin.H{"username": "root", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok := decode[TokenResponse](t, w)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(http.MethodGet, "/auth/me", tok.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.User](t, w)
	assert.Equal(t, "root", me.Username)
	assert.Equal(t, models.RoleAdmin, me.Role)
}

func TestUnauthenticatedRequestsGet401(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	for _, path := range []string{"/users", "/companies", "/clients", "/queries/companies/top-revenue"} {
		w := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := env.do(http.MethodGet, "/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ErrCodeUnauthorized, decodeError(t, w).Code)
}

func TestRoleUserCannotCreateUser(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	w := env.do(http.MethodPost, "/users", env.userToken, gin.H{"username": "sneaky", "email": "sneaky@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	n, err := env.users.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRoleUserCannotCreateClient(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	co := env.createCompany("Acme", 10, "tools", "10")
	w := env.do(http.MethodPost, "/clients", env.userToken, gin.H{
		"name": "x", "email": "x@x.io", "phone": "123", "user_id": env.user.ID, "company_id": co.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, ErrCodeForbidden, decodeError(t, w).Code)
}

func TestForgedAdminClaimIsRejected(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	forged := testutil.GenerateJWTHS256(t, testSecret, env.user.ID, env.user.Username, models.RoleAdmin)
	w := env.do(http.MethodPost, "/companies", forged, gin.H{"name": "Evil Corp"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUsersCRUD(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})

	w := env.do(http.MethodPost, "/users", env.adminToken, gin.H{"username": "alice", "email": "Alice@Example.com", "password": "s3cretpass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	alice := decode[models.User](t, w)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Equal(t, models.RoleUser, alice.Role)

	w = env.do(http.MethodPost, "/users", env.adminToken, gin.H{"username": "alice", "email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, "/users", env.adminToken, gin.H{"username": "alice2", "email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/users", env.adminToken, gin.H{"username": "al", "email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, ErrCodeValidation, detail.Code)
	assert.Len(t, detail.Fields, 2)

	w = env.do(http.MethodPost, "/users", env.adminToken, `{"username":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/users?username=alice", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.User](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)

	w = env.do(http.MethodGet, "/users?limit=0", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	aliceToken := env.token(&alice)
	w = env.do(http.MethodPut, "/users/"+itoa(alice.ID), aliceToken, gin.H{"role": models.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodPut, "/users/"+itoa(env.user.ID), aliceToken, gin.H{"email": "hijack@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodPut, "/users/"+itoa(alice.ID), aliceToken, gin.H{"email": "alice@new.example"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice@new.example", decode[models.User](t, w).Email)

	w = env.do(http.MethodPut, "/users/"+itoa(alice.ID), env.adminToken, gin.H{"role": models.RoleAdmin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleAdmin, decode[models.User](t, w).Role)
	w = env.do(http.MethodPut, "/users/9999", env.adminToken, gin.H{"email": "x@y.io"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/users/"+itoa(alice.ID), env.userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodDelete, "/users/"+itoa(alice.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodGet, "/users/"+itoa(alice.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, "/users/abc", env.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []events.Type{events.UserCreated, events.UserUpdated, events.UserUpdated, events.UserDeleted}, env.recorder.Types())
}

func TestCompaniesCRUDAndRange(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})

	small := env.createCompany("Small", 10, "Retail", "100.456")
	assert.Equal(t, "retail", small.Industry)
	assert.Equal(t, "100.46", small.Revenue.String())
	env.createCompany("Medium", 500, "retail", "5000")
	env.createCompany("Large", 2000, "energy", "90000")

	w := env.do(http.MethodPost, "/companies", env.adminToken, gin.H{"name": "Small"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, "/companies", env.adminToken, gin.H{"name": "Neg", "employees": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/companies", env.adminToken, gin.H{"name": "Neg", "revenue": "-5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/companies?min_employees=500&max_employees=2000", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Company](t, w), 2)

	w = env.do(http.MethodGet, "/companies?min_employees=10&industry=retail", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Company](t, w), 2)

	w = env.do(http.MethodGet, "/companies?min_employees=600&max_employees=10", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/companies?industry=energy", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Company](t, w), 1)

	w = env.do(http.MethodPut, "/companies/"+itoa(small.ID), env.adminToken, gin.H{"name": "Small Renamed", "employees": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Small Renamed", decode[models.Company](t, w).Name)
	w = env.do(http.MethodPut, "/companies/"+itoa(small.ID), env.userToken, gin.H{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	companyID := small.ID
	env.user.CompanyID = &companyID
	require.NoError(t, env.users.Update(context.Background(), env.user))
	w = env.do(http.MethodGet, "/companies/"+itoa(small.ID)+"/employees", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	staff := decode[[]models.User](t, w)
	require.Len(t, staff, 1)
	assert.Equal(t, env.user.ID, staff[0].ID)

	w = env.do(http.MethodGet, "/companies/9999/employees", env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/companies/"+itoa(small.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodGet, "/companies/"+itoa(small.ID), env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientCreationCompanyTaken(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	co := env.createCompany("Initech", 50, "software", "1000")

	w := env.createClient("first", env.user.ID, co.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[models.Client](t, w)
	assert.Equal(t, co.ID, first.CompanyID)

	w = env.createClient("second", env.admin.ID, co.ID)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Company already taken by another client", decodeError(t, w).Message)

	n, err := env.clients.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	w = env.createClient("orphan", env.user.ID, 9999)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/clients", env.adminToken, gin.H{"name": "bad", "email": "nope", "phone": "x", "user_id": 0, "company_id": co.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeValidation, decodeError(t, w).Code)

	w = env.do(http.MethodDelete, "/companies/"+itoa(co.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Contains(t, env.recorder.Types(), events.ClientCreated)
}

func TestClientsCRUDAndLinks(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	wayne := env.createCompany("Wayne Enterprises", 5000, "conglomerate", "1")
	stark := env.createCompany("Stark Industries", 9000, "defense", "2")
	free := env.createCompany("Free Co", 1, "", "0")

	w := env.createClient("batcave", env.admin.ID, wayne.ID)
	require.Equal(t, http.StatusCreated, w.Code)
	bat := decode[models.Client](t, w)
	w = env.createClient("tower", env.admin.ID, stark.ID)
	require.Equal(t, http.StatusCreated, w.Code)
	tower := decode[models.Client](t, w)

	w = env.do(http.MethodGet, "/clients/"+itoa(bat.ID), env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Client](t, w)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Wayne Enterprises", got.Company.Name)

	w = env.do(http.MethodGet, "/clients?company_name=ENTERPRISE", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	byName := decode[[]models.Client](t, w)
	require.Len(t, byName, 1)
	assert.Equal(t, bat.ID, byName[0].ID)

	w = env.do(http.MethodGet, "/clients?user_id="+itoa(env.admin.ID), env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 2)

	// Moving a client onto another client's company is refused.
	w = env.do(http.MethodPut, "/clients/"+itoa(tower.ID), env.adminToken, gin.H{
		"name": "tower", "email": "t@t.io", "phone": "1-800", "user_id": env.admin.ID, "company_id": wayne.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPut, "/clients/"+itoa(tower.ID), env.adminToken, gin.H{
		"name": "tower", "email": "t@t.io", "phone": "1-800", "user_id": env.admin.ID, "company_id": free.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, free.ID, decode[models.Client](t, w).CompanyID)

	// Link and unlink the plain user.
	w = env.do(http.MethodPost, "/clients/"+itoa(bat.ID)+"/users", env.adminToken, gin.H{"user_id": env.user.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(http.MethodPost, "/clients/"+itoa(bat.ID)+"/users", env.adminToken, gin.H{"user_id": env.user.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, "/clients/9999/users", env.adminToken, gin.H{"user_id": env.user.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodPost, "/clients/"+itoa(bat.ID)+"/users", env.userToken, gin.H{"user_id": env.user.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/clients/"+itoa(bat.ID)+"/users", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 2)

	w = env.do(http.MethodGet, "/users/"+itoa(env.user.ID)+"/clients", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 1)

	w = env.do(http.MethodDelete, "/clients/"+itoa(bat.ID)+"/users/"+itoa(env.user.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodDelete, "/clients/"+itoa(bat.ID)+"/users/"+itoa(env.user.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/queries/clients/by-user/"+itoa(env.user.ID), env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Client](t, w))

	w = env.do(http.MethodGet, "/clients/"+itoa(bat.ID)+"/users?include_unlinked=true", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]models.ClientUser](t, w)
	require.Len(t, history, 2)
	assert.False(t, history[1].Active)

	w = env.do(http.MethodDelete, "/clients/"+itoa(bat.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(http.MethodGet, "/clients/"+itoa(bat.ID), env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueries(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	env.createCompany("Amazon", 1500, "retail", "500")
	env.createCompany("Walmart", 2100, "retail", "400")
	env.createCompany("Google", 1000, "tech", "300")
	env.createCompany("Meta", 900, "tech", "300")

	w := env.do(http.MethodGet, "/queries/companies/top-revenue", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	top := decode[[]models.Company](t, w)
	var names []string
	for _, c := range top {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Amazon", "Google", "Meta"}, names)

	w = env.do(http.MethodGet, "/queries/companies/by-employees?min=500&max=2000", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Company](t, w), 3)

	w = env.do(http.MethodGet, "/queries/companies/by-employees?min=500", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodGet, "/queries/companies/by-employees?min=x&max=2", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/queries/clients/by-company-name", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodGet, "/queries/clients/by-company-name?name=goo", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Client](t, w))

	w = env.do(http.MethodGet, "/queries/clients/by-user/9999", env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlainTextRoundTrips(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})

	co := env.createCompany("AT&T", 100, `Mom & Pop "Retail"`, "10")
	assert.Equal(t, "AT&T", co.Name)
	assert.Equal(t, `mom & pop "retail"`, co.Industry)

	w := env.createClient("o'neil", env.admin.ID, co.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "o'neil", decode[models.Client](t, w).Name)

	w = env.do(http.MethodGet, "/clients?company_name=AT%26T", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 1)

	w = env.do(http.MethodPost, "/users", env.adminToken, gin.H{"username": "o'brien", "email": "ob@example.com", "password": "s3cretpass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "o'brien", decode[models.User](t, w).Username)
	w = env.do(http.MethodPost, "/auth/login", "", gin.H{"username": "o'brien", "password": "s3cretpass"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/companies", env.adminToken, gin.H{"name": "<b>Bold</b> Corp"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decodeError(t, w).Fields[0].Field)
	w = env.do(http.MethodPost, "/users", env.adminToken, gin.H{"username": "<i>eve</i>", "email": "eve@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateClientOwnerLinksNewOwner(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	co := env.createCompany("Umbrella", 30, "pharma", "7")
	w := env.createClient("raccoon", env.admin.ID, co.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cl := decode[models.Client](t, w)

	w = env.do(http.MethodPut, "/clients/"+itoa(cl.ID), env.adminToken, gin.H{
		"name": "raccoon", "email": "r@r.io", "phone": "+1 555 0100", "user_id": env.user.ID, "company_id": co.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, env.user.ID, decode[models.Client](t, w).UserID)

	w = env.do(http.MethodGet, "/users/"+itoa(env.user.ID)+"/clients", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 1)
	w = env.do(http.MethodGet, "/queries/clients/by-user/"+itoa(env.user.ID), env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 1)
}

func TestRenamedAdminKeepsAccess(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	w := env.do(http.MethodPut, "/users/"+itoa(env.admin.ID), env.adminToken, gin.H{"username": "superroot"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/auth/me", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "superroot", decode[models.User](t, w).Username)

	w = env.do(http.MethodPost, "/companies", env.adminToken, gin.H{"name": "Still Admin"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestFilteredListsArePaged(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{})
	for i, name := range []string{"Alpha Corp", "Beta Corp", "Gamma Corp"} {
		co := env.createCompany(name, 100*(i+1), "tools", "1")
		w := env.createClient("c"+itoa(int64(i)), env.admin.ID, co.ID)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(http.MethodGet, "/companies?min_employees=0&limit=2&offset=1", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Company](t, w), 2)
	w = env.do(http.MethodGet, "/companies?min_employees=0&offset=5", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Company](t, w))

	w = env.do(http.MethodGet, "/clients?company_name=corp&limit=1", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 1)
	w = env.do(http.MethodGet, "/clients?company_name=corp&limit=2&offset=2", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Client](t, w), 1)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, config.HTTPConfig{RateLimitRPS: 0.001, RateLimitBurst: 2})
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code)
	w := env.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ErrCodeRateLimited, decodeError(t, w).Code)
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	cfg := corsConfig([]string{"https://app.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.True(t, cfg.AllowCredentials)
	assert.Equal(t, []string{"https://app.example"}, cfg.AllowOrigins)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
