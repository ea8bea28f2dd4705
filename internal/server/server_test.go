package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/scoutbase/internal/ledger/domain"
	reportdomain "github.com/smallbiznis/scoutbase/internal/report/domain"
	scoutdomain "github.com/smallbiznis/scoutbase/internal/scout/domain"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
	"go.uber.org/zap"
)

type fakeScoutService struct {
	response *scoutdomain.Response
	err      error

	requestCalls int
	lastRequest  scoutdomain.Request

	report *reportdomain.Report
}

func (f *fakeScoutService) RequestReport(ctx context.Context, req scoutdomain.Request) (*scoutdomain.Response, error) {
	f.requestCalls++
	f.lastRequest = req
	_ = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeScoutService) AcceptSuggestion(ctx context.Context, userID, queried, canonical string) (*scoutdomain.Response, error) {
	_ = ctx
	_ = userID
	_ = queried
	_ = canonical
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeScoutService) GetBalance(ctx context.Context, userID string) (int64, error) {
	_ = ctx
	_ = userID
	return 7, nil
}

func (f *fakeScoutService) ListReports(ctx context.Context, userID, search string, page pagination.Pagination) ([]reportdomain.ListItem, int64, error) {
	_ = ctx
	_ = userID
	_ = search
	_ = page
	return nil, 0, nil
}

func (f *fakeScoutService) GetReport(ctx context.Context, userID string, id snowflake.ID) (*reportdomain.Report, error) {
	_ = ctx
	_ = userID
	_ = id
	return f.report, nil
}

type fakeLedgerService struct {
	grantCalls int
	lastUser   string
	lastAmount int64
}

func (f *fakeLedgerService) Credit(ctx context.Context, userID string, amount int64, reason string, sourceType ledgerdomain.LedgerSourceType, sourceID string) (ledgerdomain.RecordResult, error) {
	_ = ctx
	_ = userID
	_ = amount
	_ = reason
	_ = sourceType
	_ = sourceID
	return ledgerdomain.RecordResult{}, nil
}

func (f *fakeLedgerService) Debit(ctx context.Context, userID string, amount int64, reason string, sourceType ledgerdomain.LedgerSourceType, sourceID string) (ledgerdomain.RecordResult, error) {
	_ = ctx
	_ = userID
	_ = amount
	_ = reason
	_ = sourceType
	_ = sourceID
	return ledgerdomain.RecordResult{}, nil
}

func (f *fakeLedgerService) Grant(ctx context.Context, userID string, amount int64, reason string) (ledgerdomain.RecordResult, error) {
	f.grantCalls++
	f.lastUser = userID
	f.lastAmount = amount
	_ = ctx
	_ = reason
	return ledgerdomain.RecordResult{Balance: 10 + amount}, nil
}

func (f *fakeLedgerService) EnsureWelcomeGrant(ctx context.Context, userID string) error {
	_ = ctx
	_ = userID
	return nil
}

func (f *fakeLedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	_ = ctx
	_ = userID
	return 10, nil
}

func newTestServer(scoutSvc scoutdomain.Service, ledgerSvc ledgerdomain.Service) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:    router,
		scoutSvc:  scoutSvc,
		ledgerSvc: ledgerSvc,
		log:       zap.NewNop(),
	}
	srv.registerAPIRoutes()

	return srv, router
}

func doJSON(router *gin.Engine, method, path, body, userID string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRequestReportHandler(t *testing.T) {
	scoutSvc := &fakeScoutService{
		response: &scoutdomain.Response{Cached: true, CreditsRemaining: 4},
	}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/scout", `{"subject":"Jude Bellingham","team":"Real Madrid","refresh":true}`, "user-1")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if scoutSvc.requestCalls != 1 {
		t.Fatalf("expected 1 service call, got %d", scoutSvc.requestCalls)
	}
	if scoutSvc.lastRequest.UserID != "user-1" {
		t.Fatalf("expected user from header, got %q", scoutSvc.lastRequest.UserID)
	}
	if scoutSvc.lastRequest.Subject != "Jude Bellingham" || !scoutSvc.lastRequest.Refresh {
		t.Fatalf("request not passed through: %+v", scoutSvc.lastRequest)
	}

	var body scoutdomain.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Cached || body.CreditsRemaining != 4 {
		t.Fatalf("unexpected response body: %+v", body)
	}
}

func TestRequestReportHandlerMissingIdentity(t *testing.T) {
	scoutSvc := &fakeScoutService{response: &scoutdomain.Response{}}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/scout", `{"subject":"Jude Bellingham"}`, "")

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if scoutSvc.requestCalls != 0 {
		t.Fatal("expected service not to be called without identity")
	}
}

func TestRequestReportHandlerMissingSubject(t *testing.T) {
	scoutSvc := &fakeScoutService{response: &scoutdomain.Response{}}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/scout", `{"team":"Real Madrid"}`, "user-1")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if scoutSvc.requestCalls != 0 {
		t.Fatal("expected service not to be called on invalid body")
	}
}

func TestRequestReportHandlerInsufficientBalance(t *testing.T) {
	scoutSvc := &fakeScoutService{
		err: &ledgerdomain.InsufficientBalanceError{Required: 1, Available: 0},
	}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/scout", `{"subject":"Jude Bellingham"}`, "user-1")

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d: %s", resp.Code, resp.Body.String())
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Error.Type != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %q", body.Error.Type)
	}
	if body.Error.Required == nil || *body.Error.Required != 1 {
		t.Fatalf("expected required=1, got %v", body.Error.Required)
	}
	if body.Error.Available == nil || *body.Error.Available != 0 {
		t.Fatalf("expected available=0, got %v", body.Error.Available)
	}
}

func TestRequestReportHandlerGenerationFailure(t *testing.T) {
	scoutSvc := &fakeScoutService{
		err: &scoutdomain.GenerationError{Err: context.DeadlineExceeded},
	}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/scout", `{"subject":"Jude Bellingham"}`, "user-1")

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Error.Type != "generation_failure" {
		t.Fatalf("expected generation_failure, got %q", body.Error.Type)
	}
}

func TestGetBalanceHandler(t *testing.T) {
	_, router := newTestServer(&fakeScoutService{}, &fakeLedgerService{})

	resp := doJSON(router, http.MethodGet, "/api/credits", "", "user-1")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body map[string]int64
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["balance"] != 7 {
		t.Fatalf("expected balance 7, got %d", body["balance"])
	}
}

func TestGrantCreditsHandler(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	_, router := newTestServer(&fakeScoutService{}, ledgerSvc)

	resp := doJSON(router, http.MethodPost, "/api/credits/grant", `{"user_id":"user-2","amount":25,"reason":"promo"}`, "user-1")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ledgerSvc.grantCalls != 1 {
		t.Fatalf("expected 1 grant call, got %d", ledgerSvc.grantCalls)
	}
	if ledgerSvc.lastUser != "user-2" || ledgerSvc.lastAmount != 25 {
		t.Fatalf("unexpected grant args: user=%q amount=%d", ledgerSvc.lastUser, ledgerSvc.lastAmount)
	}
}

func TestGrantCreditsHandlerDefaultsToCaller(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	_, router := newTestServer(&fakeScoutService{}, ledgerSvc)

	resp := doJSON(router, http.MethodPost, "/api/credits/grant", `{"amount":5,"reason":"promo"}`, "user-1")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if ledgerSvc.lastUser != "user-1" {
		t.Fatalf("expected grant to caller, got %q", ledgerSvc.lastUser)
	}
}

func TestGetReportHandlerNotFound(t *testing.T) {
	_, router := newTestServer(&fakeScoutService{report: nil}, &fakeLedgerService{})

	resp := doJSON(router, http.MethodGet, "/api/reports/12345", "", "user-1")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetReportHandlerBadID(t *testing.T) {
	_, router := newTestServer(&fakeScoutService{}, &fakeLedgerService{})

	resp := doJSON(router, http.MethodGet, "/api/reports/not-a-number", "", "user-1")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAcceptSuggestionHandler(t *testing.T) {
	scoutSvc := &fakeScoutService{
		response: &scoutdomain.Response{Cached: true, CreditsRemaining: 3},
	}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/suggestions/accept", `{"queried_name":"mike jordan","canonical_name":"Michael Jordan"}`, "user-1")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body scoutdomain.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.CreditsRemaining != 3 {
		t.Fatalf("expected credits 3, got %d", body.CreditsRemaining)
	}
}

func TestAcceptSuggestionHandlerUnknownReport(t *testing.T) {
	scoutSvc := &fakeScoutService{err: scoutdomain.ErrNoSuchReport}
	_, router := newTestServer(scoutSvc, &fakeLedgerService{})

	resp := doJSON(router, http.MethodPost, "/api/suggestions/accept", `{"queried_name":"mike jordan","canonical_name":"Nobody"}`, "user-1")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
