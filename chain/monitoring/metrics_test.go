package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"stakecore/chain/clock"
	"stakecore/chain/factory"
	"stakecore/chain/ledger"
	"stakecore/chain/types"
	"stakecore/chain/wad"
)

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func newTestFactory(t *testing.T) *factory.Factory {
	t.Helper()
	admin := addr(1)
	ldg := ledger.NewInMemory(admin)
	f := factory.New(factory.Config{
		Admin:   admin,
		Pauser:  admin,
		Ledger:  ldg,
		Clock:   clock.NewMock(0),
		ChainID: 1,
	})
	if _, err := f.Bootstrap(admin, addr(2), 604800, 126144000); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return f
}

func TestCollectSetsGaugesFromFactory(t *testing.T) {
	f := newTestFactory(t)
	master := f.Master()
	if err := f.AddTotalStakedAmount(master.Address(), wad.FromTokens(10)); err != nil {
		t.Fatalf("AddTotalStakedAmount: %v", err)
	}
	if err := f.AddTotalStakedWallet(master.Address()); err != nil {
		t.Fatalf("AddTotalStakedWallet: %v", err)
	}

	s := NewServer(Config{
		ListenAddr:  "127.0.0.1:0",
		MetricsPath: "/metrics",
		HealthPath:  "/healthz",
		Factory:     f,
	})
	s.collect()

	value := testutil.ToFloat64(s.totalStakedWallet)
	if value != 1 {
		t.Fatalf("totalStakedWallet gauge = %v, want 1", value)
	}
}

func TestHealthHandlerReportsOK(t *testing.T) {
	f := newTestFactory(t)
	s := NewServer(Config{
		ListenAddr:  "127.0.0.1:0",
		MetricsPath: "/metrics",
		HealthPath:  "/healthz",
		Factory:     f,
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q, want ok", body["status"])
	}
}

func TestTotalsHandlerReportsFactoryAggregate(t *testing.T) {
	f := newTestFactory(t)
	master := f.Master()
	if err := f.AddTotalStakedAmount(master.Address(), wad.FromTokens(25)); err != nil {
		t.Fatalf("AddTotalStakedAmount: %v", err)
	}

	s := NewServer(Config{
		ListenAddr:  "127.0.0.1:0",
		MetricsPath: "/metrics",
		HealthPath:  "/healthz",
		Factory:     f,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/staking/total", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["totalStakedAmount"] != wad.FromTokens(25).String() {
		t.Fatalf("totalStakedAmount = %v, want %s", body["totalStakedAmount"], wad.FromTokens(25).String())
	}
}

func TestTotalsHandlerWithoutFactoryIsUnavailable(t *testing.T) {
	s := NewServer(Config{
		ListenAddr:  "127.0.0.1:0",
		MetricsPath: "/metrics",
		HealthPath:  "/healthz",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/staking/total", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
