package breach_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/service/breach"
	"github.com/route07/riskcore/pkg/service/ratelimit"
)

func newTestLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.WithMinDelay(0), ratelimit.WithBudget(1000))
}

func testSubject() *model.Subject {
	return &model.Subject{
		ID:    "subject-1",
		Name:  "Carol Example",
		Email: "carol@example.com",
	}
}

func TestNew(t *testing.T) {
	t.Run("returns error when base URL is empty", func(t *testing.T) {
		_, err := breach.New("", "key", newTestLimiter())
		gt.Error(t, err)
	})

	t.Run("returns error when limiter is missing", func(t *testing.T) {
		_, err := breach.New("http://example.com", "key", nil)
		gt.Error(t, err)
	})
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("breached account yields hit outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.URL.Path).Equal("/v1/breachedaccount/carol@example.com")
			gt.Value(t, r.Header.Get("x-api-key")).Equal("test-key")

			w.Write([]byte(`[
				{"name": "BigLeak", "domain": "bigleak.example.com", "verified": true, "breach_date": "2021-06-01"},
				{"name": "SmallLeak", "domain": "smallleak.example.com", "verified": false, "breach_date": "not a date"}
			]`))
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "test-key", newTestLimiter())
		gt.NoError(t, err).Required()

		result, err := svc.Check(ctx, testSubject())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeHit)
		gt.Array(t, result.Breaches).Length(2).Required()
		gt.Value(t, result.Breaches[0].Name).Equal("BigLeak")
		gt.Value(t, result.Breaches[0].Confirmed).Equal(true)
		gt.Value(t, result.Breaches[0].BreachDate).Equal(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))

		// An unparseable date keeps the record with a zero timestamp
		gt.Value(t, result.Breaches[1].Confirmed).Equal(false)
		gt.B(t, result.Breaches[1].BreachDate.IsZero()).True()
	})

	t.Run("missing email skips the provider", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		subject := testSubject()
		subject.Email = ""
		result, err := svc.Check(ctx, subject)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeEmpty)
		gt.Number(t, calls.Load()).Equal(0)
	})

	t.Run("not found yields empty outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		result, err := svc.Check(ctx, testSubject())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeEmpty)
		gt.Array(t, result.Breaches).Length(0)
	})

	t.Run("empty corpus yields empty outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		result, err := svc.Check(ctx, testSubject())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeEmpty)
	})

	t.Run("server error degrades without failing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		result, err := svc.Check(ctx, testSubject())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeDegraded)
	})

	t.Run("unreachable provider degrades without failing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		result, err := svc.Check(ctx, testSubject())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeDegraded)
	})

	t.Run("malformed payload degrades without failing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"unexpected": "shape"}`))
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		result, err := svc.Check(ctx, testSubject())
		gt.NoError(t, err).Required()
		gt.Value(t, result.Outcome).Equal(types.OutcomeDegraded)
	})

	t.Run("cancelled context surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		svc, err := breach.New(srv.URL, "", newTestLimiter())
		gt.NoError(t, err).Required()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = svc.Check(cancelled, testSubject())
		gt.Error(t, err)
	})
}
