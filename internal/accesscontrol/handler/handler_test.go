package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"sigil/internal/accesscontrol/models"
	"sigil/internal/accesscontrol/service"
	"sigil/internal/accesscontrol/store"
	"sigil/internal/platform/middleware"
	id "sigil/pkg/domain"
)

const (
	owner    = id.Address("0x1111111111111111111111111111111111111111")
	minter   = id.Address("0x2222222222222222222222222222222222222222")
	stranger = id.Address("0x3333333333333333333333333333333333333333")
)

// HandlerSuite drives the handler against a real service so the owner gate
// is exercised end to end. The caller is injected per request through the
// same context key the JWT middleware uses.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	caller id.Address
}

func (s *HandlerSuite) SetupTest() {
	s.caller = owner
	svc := service.New(store.NewMemory(models.State{Owner: owner}))
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithCaller(req.Context(), s.caller)))
		})
	})
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestGetState() {
	rec := s.do(http.MethodGet, "/admin/state", "")

	s.Require().Equal(http.StatusOK, rec.Code)
	var resp StateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(owner.String(), resp.Owner)
	s.False(resp.Paused)
	s.Empty(resp.Minters)
}

func (s *HandlerSuite) TestPauseAndUnpause() {
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/admin/pause", "").Code)

	// Double pause surfaces the state conflict.
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/admin/pause", "").Code)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/admin/unpause", "").Code)
}

func (s *HandlerSuite) TestPauseRequiresOwner() {
	s.caller = stranger
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/admin/pause", "").Code)
}

func (s *HandlerSuite) TestMinterLifecycle() {
	rec := s.do(http.MethodPost, "/admin/minters", `{"address":"`+minter.String()+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/state", "")
	var resp StateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal([]string{minter.String()}, resp.Minters)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/admin/minters/"+minter.String(), "").Code)
}

func (s *HandlerSuite) TestAddMinter_InvalidJSON() {
	rec := s.do(http.MethodPost, "/admin/minters", "not valid json")
	s.Equal(http.StatusBadRequest, rec.Code, "expected 400 for invalid JSON")
}

func (s *HandlerSuite) TestAddMinter_MalformedAddress() {
	rec := s.do(http.MethodPost, "/admin/minters", `{"address":"0x1234"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRotateSigner() {
	key := strings.Repeat("ab", 32)
	rec := s.do(http.MethodPut, "/admin/signer", `{"public_key":"`+key+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/state", "")
	var resp StateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(key, resp.Signer)
}

func (s *HandlerSuite) TestRotateSigner_MalformedKey() {
	rec := s.do(http.MethodPut, "/admin/signer", `{"public_key":"abcd"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRotateTreasury() {
	next := id.Address("0x4444444444444444444444444444444444444444")
	rec := s.do(http.MethodPut, "/admin/treasury", `{"address":"`+next.String()+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/state", "")
	var resp StateResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(next.String(), resp.Treasury)
}

func (s *HandlerSuite) TestSetBaseURI() {
	rec := s.do(http.MethodPut, "/admin/base-uri", `{"base_uri":"https://meta.example/"}`)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestTransferOwnership() {
	rec := s.do(http.MethodPost, "/admin/transfer-ownership", `{"new_owner":"`+stranger.String()+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	// The old owner is locked out.
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/admin/pause", "").Code)
}
