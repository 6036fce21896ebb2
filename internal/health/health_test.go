package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xriepv1/client/internal/api"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

// mockPolicyChecker implements PolicyChecker for tests.
type mockPolicyChecker struct {
	healthErr error
}

func (m *mockPolicyChecker) HealthCheck(context.Context) error {
	return m.healthErr
}

func TestCheck(t *testing.T) {
	boom := errors.New("connection refused")
	testCases := []struct {
		name    string
		storage Pinger
		policy  PolicyChecker
		backend Pinger
		want    Status
		failed  []string
		skipped []string
	}{
		{"nothing configured", nil, nil, nil, StatusServing, nil, []string{"storage", "policy", "backend"}},
		{"all pass", &mockPinger{}, &mockPolicyChecker{}, &mockPinger{}, StatusServing, nil, nil},
		{"storage fails", &mockPinger{pingErr: boom}, &mockPolicyChecker{}, &mockPinger{}, StatusNotServing, []string{"storage"}, nil},
		{"policy fails", nil, &mockPolicyChecker{healthErr: errors.New("rego compile failed")}, &mockPinger{}, StatusNotServing, []string{"policy"}, []string{"storage"}},
		{"backend fails", &mockPinger{}, &mockPolicyChecker{}, &mockPinger{pingErr: boom}, StatusNotServing, []string{"backend"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewChecker(tc.storage, tc.policy, tc.backend, time.Second).Check(context.Background())
			if r.Status != tc.want {
				t.Errorf("status = %v, want %v", r.Status, tc.want)
			}
			if len(r.Results) != 3 {
				t.Fatalf("results = %d, want 3", len(r.Results))
			}
			failed := map[string]bool{}
			skipped := map[string]bool{}
			for _, res := range r.Results {
				if res.Err != nil {
					failed[res.Name] = true
				}
				if res.Skipped {
					skipped[res.Name] = true
				}
			}
			for _, name := range tc.failed {
				if !failed[name] {
					t.Errorf("%s should have failed", name)
				}
			}
			for _, name := range tc.skipped {
				if !skipped[name] {
					t.Errorf("%s should be skipped", name)
				}
			}
			if len(failed) != len(tc.failed) || len(skipped) != len(tc.skipped) {
				t.Errorf("failed = %v, skipped = %v", failed, skipped)
			}
		})
	}
}

func TestCheck_Timeout(t *testing.T) {
	slow := pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	r := NewChecker(slow, nil, nil, 10*time.Millisecond).Check(context.Background())
	if r.Status != StatusNotServing || !errors.Is(r.Results[0].Err, context.DeadlineExceeded) {
		t.Errorf("report = %+v", r)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestCheck_BackendViaAPIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"No token provided"}`))
	}))
	client := api.NewClient(srv.URL, time.Second)
	if r := NewChecker(nil, nil, client, time.Second).Check(context.Background()); r.Status != StatusServing {
		t.Errorf("401 from a live backend should pass: %+v", r)
	}

	srv.Close()
	if r := NewChecker(nil, nil, client, time.Second).Check(context.Background()); r.Status != StatusNotServing {
		t.Errorf("closed backend should fail: %+v", r)
	}
}
