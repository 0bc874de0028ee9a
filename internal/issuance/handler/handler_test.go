package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

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
	"go.uber.org/mock/gomock"

	"sigil/internal/issuance/handler/mocks"
	"sigil/internal/issuance/models"
	"sigil/internal/platform/middleware"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

const (
	caller = id.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	holder = id.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(s.mockService, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		// Stand-in for the JWT middleware: every request arrives as caller.
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithCaller(req.Context(), caller)))
			})
		})
		h.RegisterAuthenticated(r)
	})
	h.RegisterPublic(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestMint() {
	s.mockService.EXPECT().
		Mint(gomock.Any(), caller, models.MintRequest{To: holder, TypeID: 2, Value: 10}).
		Return(&models.MintReceipt{To: holder, TypeID: 2, Value: 10, Path: "role"}, nil)

	rec := s.post("/mint", `{"to":"`+holder.String()+`","type_id":"2","value":10}`)

	s.Equal(http.StatusCreated, rec.Code)
	var resp MintResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(holder.String(), resp.To)
	s.Equal("2", resp.TypeID)
	s.Equal("role", resp.Path)
}

func (s *HandlerSuite) TestMintForwardsAuthorization() {
	s.mockService.EXPECT().
		Mint(gomock.Any(), caller, gomock.Any()).
		DoAndReturn(func(_ any, _ id.Address, req models.MintRequest) (*models.MintReceipt, error) {
			s.Require().NotNil(req.Authorization)
			s.Equal(uint64(3), req.Authorization.Nonce)
			s.Equal(int64(1900000000), req.Authorization.Deadline)
			return &models.MintReceipt{To: req.To, TypeID: req.TypeID, Path: "signature"}, nil
		})

	rec := s.post("/mint", `{"to":"`+holder.String()+`","type_id":"0",
		"authorization":{"deadline":1900000000,"nonce":3,"signature":"abcd"}}`)

	s.Equal(http.StatusCreated, rec.Code)
}

func (s *HandlerSuite) TestMint_InvalidJSON() {
	rec := s.post("/mint", "not valid json")
	s.Equal(http.StatusBadRequest, rec.Code, "expected 400 for invalid JSON")
}

func (s *HandlerSuite) TestMint_MissingRecipient() {
	rec := s.post("/mint", `{"type_id":"2"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestMint_MalformedAddress() {
	rec := s.post("/mint", `{"to":"0x1234","type_id":"2"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestMint_ValueTooLow() {
	s.mockService.EXPECT().
		Mint(gomock.Any(), caller, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValueTooLow, "attached value is below the required price"))

	rec := s.post("/mint", `{"to":"`+holder.String()+`","type_id":"2"}`)
	s.Equal(http.StatusPaymentRequired, rec.Code)
}

func (s *HandlerSuite) TestMint_WindowClosed() {
	s.mockService.EXPECT().
		Mint(gomock.Any(), caller, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeWindowEnded, "mint window has ended"))

	rec := s.post("/mint", `{"to":"`+holder.String()+`","type_id":"2"}`)
	s.Equal(http.StatusPreconditionFailed, rec.Code)
}

func (s *HandlerSuite) TestBurn() {
	s.mockService.EXPECT().
		Burn(gomock.Any(), caller, holder, id.CredentialTypeID(1), uint64(2)).
		Return(nil)

	rec := s.post("/burn", `{"holder":"`+holder.String()+`","type_id":"1","quantity":2}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "burned")
}

func (s *HandlerSuite) TestBurn_ZeroQuantity() {
	rec := s.post("/burn", `{"holder":"`+holder.String()+`","type_id":"1","quantity":0}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestBurn_NotAuthorized() {
	s.mockService.EXPECT().
		Burn(gomock.Any(), caller, holder, id.CredentialTypeID(1), uint64(1)).
		Return(dErrors.New(dErrors.CodeUnauthorized, "caller is neither the holder nor an approved operator"))

	rec := s.post("/burn", `{"holder":"`+holder.String()+`","type_id":"1","quantity":1}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestBurnBatch() {
	s.mockService.EXPECT().
		BurnBatch(gomock.Any(), caller, holder, []models.BurnEntry{
			{TypeID: 0, Quantity: 1},
			{TypeID: 3, Quantity: 2},
		}).
		Return(nil)

	rec := s.post("/burn/batch", `{"holder":"`+holder.String()+`",
		"entries":[{"type_id":"0","quantity":1},{"type_id":"3","quantity":2}]}`)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestBurnBatch_EmptyEntries() {
	rec := s.post("/burn/batch", `{"holder":"`+holder.String()+`","entries":[]}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSetApproval() {
	s.mockService.EXPECT().
		SetApprovalForAll(gomock.Any(), caller, holder, true).
		Return(nil)

	rec := s.post("/approvals", `{"operator":"`+holder.String()+`","approved":true}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "approval_changed")
}

func (s *HandlerSuite) TestRecover() {
	newHolder := id.Address("0xcccccccccccccccccccccccccccccccccccccccc")
	s.mockService.EXPECT().
		Recover(gomock.Any(), caller, holder, newHolder).
		Return([]id.CredentialTypeID{0, 2}, nil)

	rec := s.post("/admin/recover", `{"old_holder":"`+holder.String()+`","new_holder":"`+newHolder.String()+`"}`)

	s.Equal(http.StatusOK, rec.Code)
	var resp RecoverResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal([]string{"0", "2"}, resp.MovedTypes)
}

func (s *HandlerSuite) TestRecover_EmptyHolder() {
	newHolder := id.Address("0xcccccccccccccccccccccccccccccccccccccccc")
	s.mockService.EXPECT().
		Recover(gomock.Any(), caller, holder, newHolder).
		Return(nil, dErrors.New(dErrors.CodeEmptyRecovery, "holder has nothing to recover"))

	rec := s.post("/admin/recover", `{"old_holder":"`+holder.String()+`","new_holder":"`+newHolder.String()+`"}`)
	s.Equal(http.StatusPreconditionFailed, rec.Code)
}

func (s *HandlerSuite) TestBalances() {
	s.mockService.EXPECT().
		Balances(gomock.Any(), holder).
		Return([]models.Balance{{TypeID: 1, Quantity: 1}}, nil)

	rec := s.get("/balances/" + holder.String())

	s.Equal(http.StatusOK, rec.Code)
	var resp BalancesResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(holder.String(), resp.Holder)
	s.Require().Len(resp.Balances, 1)
	s.Equal(uint64(1), resp.Balances[0].Quantity)
}

func (s *HandlerSuite) TestBalances_MalformedAddress() {
	rec := s.get("/balances/zzzz")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestBalanceOf() {
	s.mockService.EXPECT().
		BalanceOf(gomock.Any(), holder, id.CredentialTypeID(4)).
		Return(uint64(1), nil)

	rec := s.get("/balances/" + holder.String() + "/4")

	s.Equal(http.StatusOK, rec.Code)
	var resp BalanceResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("4", resp.TypeID)
	s.Equal(uint64(1), resp.Quantity)
}

func (s *HandlerSuite) TestNonce() {
	s.mockService.EXPECT().
		Nonce(gomock.Any(), holder).
		Return(uint64(7), nil)

	rec := s.get("/nonces/" + holder.String())

	s.Equal(http.StatusOK, rec.Code)
	var resp NonceResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(uint64(7), resp.Nonce)
}
