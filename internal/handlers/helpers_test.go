package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emodiary/apiserver/internal/handlers"
	"github.com/emodiary/apiserver/internal/testhelpers"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const (
	testPassword    = "Secret123!"
	testInternalKey = "internal-key"
)

type api struct {
	t       *testing.T
	env     *testhelpers.Env
	handler http.Handler
}

func newAPI(t *testing.T, withStorage bool) *api {
	t.Helper()
	return newAPIWith(t, withStorage, handlers.RouteOptions{
		Location:    time.UTC,
		InternalKey: testInternalKey,
	})
}

func newAPIWith(t *testing.T, withStorage bool, opts handlers.RouteOptions) *api {
	t.Helper()
	env := testhelpers.NewServices(t, withStorage)
	router := chi.NewRouter()
	handlers.Mount(router, env.Services, opts)
	return &api{t: t, env: env, handler: router}
}

type request struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

func (a *api) do(req request) *httptest.ResponseRecorder {
	a.t.Helper()

	var body *bytes.Reader
	switch b := req.body.(type) {
	case nil:
		body = bytes.NewReader(nil)
	case string:
		body = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		body = bytes.NewReader(data)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, r)
	return rec
}

// register creates an account through the API and returns its token and id.
func (a *api) register(email, role string) (string, int) {
	a.t.Helper()
	rec := a.do(request{method: http.MethodPost, path: "/auth/register", body: map[string]string{
		"email":      email,
		"password":   testPassword,
		"first_name": "Test",
		"last_name":  strings.ToLower(role),
		"role":       role,
	}})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handlers.TokenResponse
	decode(a.t, rec, &resp)
	return resp.AccessToken, resp.User.ID
}

func (a *api) link(therapistID, patientID int) {
	a.t.Helper()
	rec := a.do(request{
		method:  http.MethodPost,
		path:    "/internal/links",
		headers: map[string]string{"X-Internal-Key": testInternalKey},
		body:    handlers.LinkRequest{TherapistID: therapistID, PatientID: patientID},
	})
	require.Contains(a.t, []int{http.StatusCreated, http.StatusOK}, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	decode(t, rec, &resp)
	return resp.Error
}
