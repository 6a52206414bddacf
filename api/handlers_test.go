package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/custody-ledger/api"
	"github.com/warp/custody-ledger/ledger"
	"github.com/warp/custody-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	srv  *httptest.Server
	auth *api.Authenticator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	h := api.NewHandler(store.NewMemory(), ledger.SystemClock{})
	auth := api.NewAuthenticator("test-secret")
	srv := httptest.NewServer(api.NewRouter(h, auth))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, auth: auth}
}

func (ts *testServer) token(t *testing.T, id string, role ledger.Role) string {
	t.Helper()
	tok, err := ts.auth.IssueToken(ledger.Actor{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// =============================================================================
// AUTHENTICATION TESTS
// =============================================================================

func TestAPI_RejectsMissingAndBadTokens(t *testing.T) {
	// GIVEN: A running server
	// WHEN: Requests arrive without a token, or with a forged one
	// THEN: 401 either way

	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/safe/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := api.NewAuthenticator("other-secret").IssueToken(ledger.Actor{ID: "x", Role: ledger.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	resp = ts.do(t, http.MethodGet, "/api/safe/balance", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_TokenRoundTrip(t *testing.T) {
	// GIVEN: A token issued for a cashier
	// WHEN: A permitted route is hit
	// THEN: 200 with the authenticated actor resolved

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/safe/balance", ts.token(t, "cashier-1", ledger.RoleCashier), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// ROLE GATE TESTS
// =============================================================================

func TestAPI_WithdrawalRequiresManager(t *testing.T) {
	// GIVEN: A cashier token
	// WHEN: POSTing a withdrawal
	// THEN: 403 - withdrawals carry manager authority

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/safe/withdrawals", ts.token(t, "cashier-1", ledger.RoleCashier),
		api.RecordWithdrawalRequest{Amount: "10.00", Reason: "till float"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_AuditRequiresAdmin(t *testing.T) {
	// GIVEN: A manager token
	// WHEN: Querying the audit stream
	// THEN: 403 - audit reads are admin-only

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/audit", ts.token(t, "mgr-1", ledger.RoleManager), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/audit", ts.token(t, "admin-1", ledger.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// ROUND-TRIP FLOW TESTS
// =============================================================================

func TestAPI_DropThenBalance(t *testing.T) {
	// GIVEN: A cashier drops 500.00 then 250.00, a manager withdraws 300.00
	// WHEN: The balance is read
	// THEN: 450.00, replayed from the streams

	ts := newTestServer(t)
	cashier := ts.token(t, "cashier-1", ledger.RoleCashier)
	mgr := ts.token(t, "mgr-1", ledger.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/safe/drops", cashier, api.RecordDropRequest{Amount: "500.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	drop := decodeBody[api.DropDTO](t, resp)
	assert.NotEmpty(t, drop.ReceiptNumber)

	resp = ts.do(t, http.MethodPost, "/api/safe/drops", cashier, api.RecordDropRequest{Amount: "250.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/safe/withdrawals", mgr, api.RecordWithdrawalRequest{Amount: "300.00", Reason: "bank run"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/safe/balance", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "450.00", balance.Balance.String())
}

func TestAPI_OverdraftMapsToConflict(t *testing.T) {
	// GIVEN: A safe holding 100.00
	// WHEN: A manager withdraws 150.00
	// THEN: 409 with the error envelope; balance unchanged

	ts := newTestServer(t)
	cashier := ts.token(t, "cashier-1", ledger.RoleCashier)
	mgr := ts.token(t, "mgr-1", ledger.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/safe/drops", cashier, api.RecordDropRequest{Amount: "100.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/safe/withdrawals", mgr, api.RecordWithdrawalRequest{Amount: "150.00", Reason: "bank run"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decodeBody[api.ErrorResponse](t, resp)
	assert.NotEmpty(t, errBody.Error)

	resp = ts.do(t, http.MethodGet, "/api/safe/balance", cashier, nil)
	balance := decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "100.00", balance.Balance.String())
}

func TestAPI_ValidationMapsToBadRequest(t *testing.T) {
	// GIVEN: A non-positive drop amount
	// WHEN: POSTed
	// THEN: 400

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/safe/drops", ts.token(t, "cashier-1", ledger.RoleCashier),
		api.RecordDropRequest{Amount: "-5.00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ShiftLifecycle(t *testing.T) {
	// GIVEN: A cashier opens a shift with 200.00 and drops 150.00
	// WHEN: A manager closes it with a 45.00 drawer
	// THEN: The summary reconciles to expected 50.00, variance -5.00,
	//       and a second close returns 409

	ts := newTestServer(t)
	cashier := ts.token(t, "cashier-1", ledger.RoleCashier)
	mgr := ts.token(t, "mgr-1", ledger.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/shifts", cashier, api.OpenShiftRequest{StartingCash: "200.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sh := decodeBody[api.ShiftDTO](t, resp)
	require.NotEmpty(t, sh.ID)

	resp = ts.do(t, http.MethodPost, "/api/safe/drops", cashier, api.RecordDropRequest{Amount: "150.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/shifts/"+sh.ID+"/close", mgr, api.CloseShiftRequest{EndingCash: "45.00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeBody[api.ShiftSummaryDTO](t, resp)
	assert.Equal(t, "50.00", summary.ExpectedEnding.String())
	assert.Equal(t, "-5.00", summary.Variance.String())

	resp = ts.do(t, http.MethodPost, "/api/shifts/"+sh.ID+"/close", mgr, api.CloseShiftRequest{EndingCash: "45.00"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ClockInDefaultsToActor(t *testing.T) {
	// GIVEN: A cashier clocking in with no employee_id in the body
	// WHEN: Clock-in then clock-out
	// THEN: Both resolve to the token's subject

	ts := newTestServer(t)
	cashier := ts.token(t, "emp-7", ledger.RoleCashier)

	resp := ts.do(t, http.MethodPost, "/api/payroll/clock-in", cashier, api.ClockRequest{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/payroll/clock-out", cashier, api.ClockRequest{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_DuplicatePaycheckMapsToConflict(t *testing.T) {
	// GIVEN: A week already paid via the API
	// WHEN: The same paycheck is submitted again
	// THEN: 409

	ts := newTestServer(t)
	admin := ts.token(t, "admin-1", ledger.RoleAdmin)

	req := api.RecordPaycheckRequest{
		EmployeeID: "emp-1",
		WeekStart:  "2024-02-05",
		WeekEnd:    "2024-02-11",
		Hours:      38.5,
		HourlyRate: "15.00",
	}
	resp := ts.do(t, http.MethodPost, "/api/payroll/paychecks", admin, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/payroll/paychecks", admin, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_AuditStreamRecordsTheFlow(t *testing.T) {
	// GIVEN: A drop recorded through the API
	// WHEN: An admin queries the audit stream for safe_drops
	// THEN: One insert entry authored by the cashier

	ts := newTestServer(t)
	cashier := ts.token(t, "cashier-1", ledger.RoleCashier)
	admin := ts.token(t, "admin-1", ledger.RoleAdmin)

	resp := ts.do(t, http.MethodPost, "/api/safe/drops", cashier, api.RecordDropRequest{Amount: "75.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/audit?table=safe_drops", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[api.AuditPageDTO](t, resp)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "insert", page.Entries[0].Action)
	assert.Equal(t, "cashier-1", page.Entries[0].ActorID)
}
