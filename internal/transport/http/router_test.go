package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	assethandler "heirloom/internal/asset/handler"
	assetservice "heirloom/internal/asset/service"
	assetstore "heirloom/internal/asset/store/asset"
	authhandler "heirloom/internal/auth/handler"
	authservice "heirloom/internal/auth/service"
	"heirloom/internal/auth/store/revocation"
	"heirloom/internal/auth/token"
	documenthandler "heirloom/internal/document/handler"
	documentservice "heirloom/internal/document/service"
	documentstore "heirloom/internal/document/store/document"
	identityhandler "heirloom/internal/identity/handler"
	identitymodels "heirloom/internal/identity/models"
	identityservice "heirloom/internal/identity/service"
	userstore "heirloom/internal/identity/store/user"
	"heirloom/internal/platform/middleware"
)

// RouterSuite exercises the whole authenticated surface end to end with
// in-memory stores: login, role gating, logout revocation, and the edge
// redirect behavior.
type RouterSuite struct {
	suite.Suite
	handler http.Handler
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := userstore.NewInMemory()
	identity := identityservice.New(users, logger)

	for _, u := range []struct {
		name, email, password string
		role                  identitymodels.Role
	}{
		{"Saadi Rahman", "saadi@example.com", "saadi123", identitymodels.RoleAdmin},
		{"Viewer Only", "viewer@example.com", "viewer123", identitymodels.RoleViewer},
	} {
		_, err := identity.Create(context.Background(), identityservice.CreateUserRequest{
			FullName: u.name,
			Email:    u.email,
			Password: u.password,
			Role:     u.role,
		}, "")
		s.Require().NoError(err)
	}

	issuer, err := token.NewService("router-test-key", 7*24*time.Hour)
	s.Require().NoError(err)
	denylist := revocation.NewInMemory()

	auth := authservice.New(identity, issuer, logger, authservice.WithRevocationList(denylist))
	assets := assetservice.New(assetstore.NewInMemory(), identity, logger)
	documents := documentservice.New(documentstore.NewInMemory(), assets, logger)

	s.handler = New(Deps{
		Logger:     logger,
		Auth:       authhandler.New(auth, logger, nil, false),
		Assets:     assethandler.New(assets, logger),
		Persons:    identityhandler.New(identity, logger),
		Documents:  documenthandler.New(documents, logger),
		Validator:  token.NewMiddlewareAdapter(issuer),
		Revocation: denylist,
		Health: []HealthCheck{
			{Name: "store", Probe: func(context.Context) error { return nil }},
		},
	})
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) login(email, password string) *http.Cookie {
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	return cookies[0]
}

func (s *RouterSuite) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

const landPlotBody = `{
	"assetType": "land_plot",
	"title": "Village paddy land",
	"dimensions": {"areaSqM": 2400}
}`

func (s *RouterSuite) TestEdgeGate() {
	s.Run("protected page without a cookie redirects to login", func() {
		rec := s.do(http.MethodGet, "/assets", "", nil)
		s.Equal(http.StatusFound, rec.Code)
		s.Equal("/login", rec.Header().Get("Location"))
	})

	s.Run("protected api path without a cookie answers 401", func() {
		rec := s.do(http.MethodGet, "/api/assets", "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("login page is reachable without a cookie", func() {
		rec := s.do(http.MethodGet, "/login", "", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("healthz is public", func() {
		rec := s.do(http.MethodGet, "/healthz", "", nil)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *RouterSuite) TestRoleGating() {
	admin := s.login("saadi@example.com", "saadi123")
	viewer := s.login("viewer@example.com", "viewer123")

	s.Run("admin can create an asset", func() {
		rec := s.do(http.MethodPost, "/api/assets", landPlotBody, admin)
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("viewer can read but not create", func() {
		rec := s.do(http.MethodGet, "/api/assets", "", viewer)
		s.Equal(http.StatusOK, rec.Code)

		rec = s.do(http.MethodPost, "/api/assets", landPlotBody, viewer)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("viewer cannot mutate the person directory", func() {
		rec := s.do(http.MethodPost, "/api/persons",
			`{"full_name":"New Member","email":"new@example.com","password":"pw123456","role":"viewer"}`, viewer)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("tampered cookie is rejected by the api layer", func() {
		bad := &http.Cookie{Name: middleware.SessionCookieName, Value: admin.Value + "x"}
		rec := s.do(http.MethodGet, "/api/assets", "", bad)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *RouterSuite) TestLogoutRevokesSession() {
	admin := s.login("saadi@example.com", "saadi123")

	rec := s.do(http.MethodPost, "/api/auth/logout", "", admin)
	s.Equal(http.StatusFound, rec.Code)
	s.Equal("/login", rec.Header().Get("Location"))

	s.Run("the revoked token no longer grants access", func() {
		rec := s.do(http.MethodGet, "/api/assets", "", admin)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *RouterSuite) TestReportEndpoint() {
	admin := s.login("saadi@example.com", "saadi123")

	rec := s.do(http.MethodPost, "/api/assets", landPlotBody, admin)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	rec = s.do(http.MethodGet, "/api/assets/"+created.ID+"/report", "", admin)
	s.Equal(http.StatusOK, rec.Code)

	var rows []struct {
		Section string `json:"section"`
		Field   string `json:"field"`
		Value   string `json:"value"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &rows))
	s.Require().NotEmpty(rows)
	s.Equal("Basic Information", rows[0].Section)
	s.Equal("Title", rows[0].Field)
	s.Equal("Village paddy land", rows[0].Value)
}

func (s *RouterSuite) TestDocumentFlow() {
	admin := s.login("saadi@example.com", "saadi123")

	rec := s.do(http.MethodPost, "/api/assets", landPlotBody, admin)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	s.Run("document referencing the asset is accepted", func() {
		rec := s.do(http.MethodPost, "/api/documents",
			`{"assetId":"`+created.ID+`","title":"Registered deed","docType":"deed"}`, admin)
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("document referencing a missing asset is rejected", func() {
		rec := s.do(http.MethodPost, "/api/documents",
			`{"assetId":"00000000-0000-0000-0000-000000000001","title":"Orphan","docType":"deed"}`, admin)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
