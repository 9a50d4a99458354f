package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/engine"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/pkg/addr"
	"github.com/mindlabs/gomarket/pkg/receipts"
)

func newTestServer(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	bus := events.NewBus()
	eng, err := engine.New(engine.Config{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		AllowFunding: true,
	}, bus)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })

	rcpts, err := receipts.Open(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("open receipts: %v", err)
	}
	t.Cleanup(func() { _ = rcpts.Close() })

	return New(eng, bus, rcpts).Router(), eng
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func serverFees() domain.FeeSchedule {
	return domain.FeeSchedule{
		CreateProject: domain.Fee{Amount: 1_000_000, Kind: domain.FeeFixed},
		TradeNFT:      domain.Fee{Amount: 2_500_000, Kind: domain.FeeFixed},
	}
}

func TestProtocolOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)
	admin := addr.New()

	// fund the payer through the faucet endpoint
	w := doJSON(t, h, "POST", "/v1/accounts/"+admin.String()+"/fund", fundRequest{Amount: 1_000_000_000}, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("fund status = %d: %s", w.Code, w.Body)
	}

	init := initializeProtocolRequest{
		Payer:  admin,
		Admins: []addr.Address{admin},
		Fees:   serverFees(),
	}
	w = doJSON(t, h, "POST", "/v1/protocol/initialize", init, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize status = %d: %s", w.Code, w.Body)
	}

	// second init maps to a state conflict
	w = doJSON(t, h, "POST", "/v1/protocol/initialize", init, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second init status = %d: %s", w.Code, w.Body)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &apiErr); err != nil || apiErr.Code != "state_conflict" {
		t.Fatalf("error body = %s (%v)", w.Body, err)
	}

	w = doJSON(t, h, "GET", "/v1/protocol", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get protocol status = %d", w.Code)
	}
	var cfg domain.ProtocolConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode protocol: %v", err)
	}
	if len(cfg.Admins) != 1 || cfg.Admins[0] != admin {
		t.Fatalf("admins = %+v", cfg.Admins)
	}
}

func TestErrorMapping(t *testing.T) {
	h, _ := newTestServer(t)

	// unknown listing
	w := doJSON(t, h, "GET", "/v1/listings/"+addr.New().String(), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing listing status = %d", w.Code)
	}

	// malformed address in the path
	w = doJSON(t, h, "GET", "/v1/listings/not-an-address!!", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad address status = %d", w.Code)
	}

	// protocol not initialized surfaces as a conflict
	w = doJSON(t, h, "POST", "/v1/projects", createProjectRequest{Owner: addr.New(), Name: "p"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("uninitialized status = %d: %s", w.Code, w.Body)
	}
}

func TestIdempotentReplay(t *testing.T) {
	h, _ := newTestServer(t)
	admin := addr.New()

	doJSON(t, h, "POST", "/v1/accounts/"+admin.String()+"/fund", fundRequest{Amount: 100_000_000_000}, nil)
	w := doJSON(t, h, "POST", "/v1/protocol/initialize", initializeProtocolRequest{
		Payer: admin, Admins: []addr.Address{admin}, Fees: serverFees(),
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize status = %d: %s", w.Code, w.Body)
	}

	req := createProjectRequest{Owner: admin, ID: 1, Name: "proj"}
	hdr := map[string]string{"X-Request-ID": "req-123"}

	first := doJSON(t, h, "POST", "/v1/projects", req, hdr)
	if first.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", first.Code, first.Body)
	}

	// same request id replays the original response; without the
	// receipt this would be a duplicate-project conflict
	second := doJSON(t, h, "POST", "/v1/projects", req, hdr)
	if second.Code != http.StatusOK {
		t.Fatalf("replay status = %d: %s", second.Code, second.Body)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("replay body differs:\n%s\n%s", first.Body, second.Body)
	}

	// a different request id executes for real and hits the conflict
	third := doJSON(t, h, "POST", "/v1/projects", req, map[string]string{"X-Request-ID": "req-456"})
	if third.Code != http.StatusConflict {
		t.Fatalf("re-execute status = %d: %s", third.Code, third.Body)
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	w := doJSON(t, h, "GET", "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}
