package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"loanledger/internal/adapter/repository/mysql"
	"loanledger/internal/config"
	"loanledger/internal/domain/wallet"
	"loanledger/internal/testutil/sqlitedb"
	"loanledger/internal/usecase/approval"
	"loanledger/internal/usecase/eligibility"
	"loanledger/internal/usecase/loan"
	"loanledger/internal/usecase/repayment"
	"loanledger/internal/usecase/shares"
	"loanledger/pkg/clock"
)

var (
	testUser  = strings.Repeat("b", 32)
	testAdmin = strings.Repeat("a", 32)
	testNow   = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
)

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// newTestServer wires every route against an in-memory database.
func newTestServer(t *testing.T, policy config.Policy) *testServer {
	t.Helper()
	db := sqlitedb.Open(t)
	log := zaptest.NewLogger(t)
	tx := mysql.NewGormUoW(db)
	clk := clock.Fixed{T: testNow}

	e := newEchoWithValidator()
	Register(e, Handlers{
		Health: NewHandler(),
		Loans: NewLoanHandler(
			loan.NewUsecase(tx, policy, clk, log),
			eligibility.NewUsecase(tx, policy, log),
			repayment.NewUsecase(tx, clk, log),
			log,
		),
		Approval: NewApprovalHandler(approval.NewUsecase(tx, clk, log), log),
		Shares:   NewShareHandler(shares.NewUsecase(tx, policy, clk, log), log),
	}, passthrough)
	return &testServer{e: e, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r *bytes.Reader
	switch b := body.(type) {
	case nil:
		r = bytes.NewReader(nil)
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		r = mustJSON(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) fund(t *testing.T, user, amount string) {
	t.Helper()
	_, err := wallet.NewLedger(mysql.NewWalletRepository(s.db)).Credit(context.Background(), user, decimal.RequireFromString(amount), "top up", "TOPUP")
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func asUser() map[string]string  { return map[string]string{HeaderUserID: testUser} }
func asAdmin() map[string]string { return map[string]string{HeaderAdminID: testAdmin} }

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, code, rec.Body.String())
	}
}
