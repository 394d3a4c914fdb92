package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alanbarret/wallet-attendance-system/adapters/replay"
	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testKeys is an in-memory server signing pair.
type testKeys struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

func (k testKeys) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.private, message), nil
}

func (k testKeys) PublicKey() ed25519.PublicKey { return k.public }

// testRegistry backs both the directory and registrar ports in memory.
type testRegistry struct {
	byKey map[string]core.Employee
}

func (r *testRegistry) Lookup(ctx context.Context, publicKey string) (core.Employee, bool, error) {
	emp, ok := r.byKey[publicKey]
	return emp, ok, nil
}

func (r *testRegistry) Register(ctx context.Context, emp core.Employee) (core.Employee, string, error) {
	for _, existing := range r.byKey {
		if existing.ID == emp.ID {
			return core.Employee{}, "", core.ErrEmployeeExists
		}
	}
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return core.Employee{}, "", err
	}
	emp.PublicKey = core.EncodeKey(public)
	r.byKey[emp.PublicKey] = emp
	return emp, base58.Encode(private), nil
}

func (r *testRegistry) List(ctx context.Context) ([]core.Employee, error) {
	out := make([]core.Employee, 0, len(r.byKey))
	for _, e := range r.byKey {
		out = append(out, e)
	}
	return out, nil
}

// nopStore keeps records in memory for the duration of a test.
type nopStore struct {
	records []core.AttendanceRecord
}

func (s *nopStore) Load(ctx context.Context) ([]core.AttendanceRecord, error) {
	return s.records, nil
}

func (s *nopStore) Save(ctx context.Context, records []core.AttendanceRecord) error {
	s.records = records
	return nil
}

type testServer struct {
	router   *gin.Engine
	svc      *service.AttendanceService
	registry *testRegistry
	keys     testKeys
	empKey   string
	empPriv  ed25519.PrivateKey
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	keys := testKeys{public: public, private: private}

	empPublic, empPrivate, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	empKey := core.EncodeKey(empPublic)

	registry := &testRegistry{byKey: map[string]core.Employee{
		empKey: {ID: "EMP001", Name: "Ada Lovelace", PublicKey: empKey},
	}}

	ledger, err := service.NewAttendanceLedger(context.Background(), &nopStore{}, zap.NewNop())
	require.NoError(t, err)

	svc := service.NewAttendanceService(
		service.NewTokenIssuer(keys, 10*time.Second),
		service.NewTokenVerifier(keys, 30*time.Second, registry, replay.NewMemoryGuard(300*time.Second)),
		ledger, nil, zap.NewNop())

	return &testServer{
		router:   SetupRouter(svc, registry, opts, zap.NewNop()),
		svc:      svc,
		registry: registry,
		keys:     keys,
		empKey:   empKey,
		empPriv:  empPrivate,
	}
}

// scanRequest signs the token with the test employee's key and posts it.
func (s *testServer) scanRequest(t *testing.T, token core.Token, confirm bool) *httptest.ResponseRecorder {
	t.Helper()
	req := core.AttendanceRequest{
		Token:             token,
		EmployeeKey:       s.empKey,
		EmployeeSignature: core.EncodeSignature(ed25519.Sign(s.empPriv, []byte(token.Message))),
		ConfirmCheckout:   confirm,
	}
	return s.postJSON(t, "/api/attendance", req)
}

func (s *testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, r)
	return w
}

func (s *testServer) currentToken(t *testing.T) core.Token {
	t.Helper()
	token, err := s.svc.IssueCurrentToken(time.Now())
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMarkAttendance_MissingDataIsRejected(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.postJSON(t, "/api/attendance", map[string]any{"public_key": s.empKey})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required data", decodeBody(t, w)["message"])
}

func TestMarkAttendance_CheckInFlow(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.scanRequest(t, s.currentToken(t), false)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "check-in", body["action"])
	assert.Equal(t, "Ada Lovelace", body["employee_name"])
	assert.NotEmpty(t, body["in_time"])
}

func TestMarkAttendance_CheckoutNeedsConfirmation(t *testing.T) {
	s := newTestServer(t, Options{})

	require.Equal(t, http.StatusOK, s.scanRequest(t, s.currentToken(t), false).Code)

	// The guard has consumed the current rotation's token; tokens from the
	// two previous rotations are still fresh and unconsumed.
	token2, err := service.NewTokenIssuer(s.keys, 10*time.Second).Issue(time.Now().Add(-10 * time.Second))
	require.NoError(t, err)

	w := s.scanRequest(t, token2, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Confirm check-out", body["message"])
	assert.NotEmpty(t, body["out_time"])

	w = s.scanRequest(t, token2, true)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "check-out", body["action"])

	token3, err := service.NewTokenIssuer(s.keys, 10*time.Second).Issue(time.Now().Add(-20 * time.Second))
	require.NoError(t, err)
	w = s.scanRequest(t, token3, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Already checked out today", decodeBody(t, w)["message"])
}

func TestMarkAttendance_ReplayedTokenConflicts(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.currentToken(t)

	require.Equal(t, http.StatusOK, s.scanRequest(t, token, false).Code)

	w := s.scanRequest(t, token, false)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "QR code already used recently", decodeBody(t, w)["message"])
}

func TestMarkAttendance_ExpiredTokenUnauthorized(t *testing.T) {
	s := newTestServer(t, Options{})

	stale, err := service.NewTokenIssuer(s.keys, 10*time.Second).Issue(time.Now().Add(-2 * time.Minute))
	require.NoError(t, err)

	w := s.scanRequest(t, stale, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "QR code expired")
}

func TestMarkAttendance_UnknownEmployeeForbidden(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.currentToken(t)

	strangerPublic, strangerPrivate, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	w := s.postJSON(t, "/api/attendance", core.AttendanceRequest{
		Token:             token,
		EmployeeKey:       core.EncodeKey(strangerPublic),
		EmployeeSignature: core.EncodeSignature(ed25519.Sign(strangerPrivate, []byte(token.Message))),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkAttendance_TamperedSignatureUnauthorized(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.currentToken(t)
	token.Signature = core.EncodeSignature(make([]byte, ed25519.SignatureSize))

	w := s.scanRequest(t, token, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid QR code signature", decodeBody(t, w)["message"])
}

func TestListAttendance_ReturnsRecords(t *testing.T) {
	s := newTestServer(t, Options{})
	require.Equal(t, http.StatusOK, s.scanRequest(t, s.currentToken(t), false).Code)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/attendance", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	records, ok := body["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestQRImage_ReturnsPNG(t *testing.T) {
	s := newTestServer(t, Options{})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestRegisterEmployee_OpenWithoutAdminPassword(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.postJSON(t, "/api/register", map[string]string{"emp_id": "EMP002", "name": "Grace Hopper"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["public_key"])
	assert.NotEmpty(t, body["private_key"])
}

func TestRegisterEmployee_DuplicateConflicts(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.postJSON(t, "/api/register", map[string]string{"emp_id": "EMP001", "name": "Impostor"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOperatorAuth_GuardsAdminEndpoints(t *testing.T) {
	opts := Options{AdminPassword: "hunter2", JWTSecret: "test-secret"}
	s := newTestServer(t, opts)

	// No token.
	w := s.postJSON(t, "/api/register", map[string]string{"emp_id": "EMP002", "name": "Grace"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong password.
	w = s.postJSON(t, "/auth/login", map[string]string{"password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Right password yields a token that opens the endpoint.
	w = s.postJSON(t, "/auth/login", map[string]string{"password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code)
	token, ok := decodeBody(t, w)["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	payload, err := json.Marshal(map[string]string{"emp_id": "EMP002", "name": "Grace"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// Garbage token is rejected.
	r = httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterPage_ShowsLoginOnlyWhenGuarded(t *testing.T) {
	open := newTestServer(t, Options{})
	w := httptest.NewRecorder()
	open.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/register", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="login" style="display:none"`)

	guarded := newTestServer(t, Options{AdminPassword: "hunter2", JWTSecret: "test-secret"})
	w = httptest.NewRecorder()
	guarded.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/register", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="form" style="display:none"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
