package metrics

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HatiCode/climacast/pkg/training"
)

func result() training.Result {
	return training.Result{
		Rows:      16,
		MeanError: 0.04,
		Duration:  1500 * time.Millisecond,
		Folds: []training.FoldReport{
			{Index: 0, MAE: 0.05},
			{Index: 1, MAE: 0.03},
		},
	}
}

func TestRecordSuccess(t *testing.T) {
	m := New()
	at := time.Unix(1_700_000_000, 0)

	m.RecordSuccess(result(), at)

	if got := testutil.ToFloat64(m.Rows); got != 16 {
		t.Errorf("Rows = %v, want 16", got)
	}
	if got := testutil.ToFloat64(m.MeanError); got != 0.04 {
		t.Errorf("MeanError = %v, want 0.04", got)
	}
	if got := testutil.ToFloat64(m.RunDuration); got != 1.5 {
		t.Errorf("RunDuration = %v, want 1.5", got)
	}
	if got := testutil.ToFloat64(m.FoldError.WithLabelValues("1")); got != 0.03 {
		t.Errorf("FoldError[1] = %v, want 0.03", got)
	}
	if got := testutil.ToFloat64(m.LastSuccess); got != 1_700_000_000 {
		t.Errorf("LastSuccess = %v", got)
	}
	if count := testutil.CollectAndCount(m.FoldError); count != 2 {
		t.Errorf("expected 2 fold series, got %d", count)
	}
}

func TestRecordFailure(t *testing.T) {
	m := New()

	m.RecordFailure(time.Unix(42, 0))

	if got := testutil.ToFloat64(m.LastFailure); got != 42 {
		t.Errorf("LastFailure = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.LastSuccess); got != 0 {
		t.Errorf("LastSuccess = %v, want 0", got)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Each run owns its registry, so building twice must not panic.
	a, b := New(), New()
	if a.Registry() == b.Registry() {
		t.Error("expected distinct registries")
	}
}

func TestPush(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, data
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := New()
	m.RecordSuccess(result(), time.Now())

	if err := m.Push(context.Background(), server.URL, "climacast_trainer"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPost {
		t.Errorf("method = %s, want POST", method)
	}
	if path != "/metrics/job/climacast_trainer" {
		t.Errorf("path = %s", path)
	}
	if !bytes.Contains(body, []byte("climacast_trainer_mean_error")) {
		t.Error("pushed body should contain climacast_trainer_mean_error")
	}
}

func TestPush_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := New().Push(context.Background(), server.URL, "climacast_trainer"); err == nil {
		t.Fatal("expected error for failing gateway")
	}
}
