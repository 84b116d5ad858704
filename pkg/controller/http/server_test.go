package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/repository/memory"
	"github.com/route07/riskcore/pkg/usecase"

	httpctrl "github.com/route07/riskcore/pkg/controller/http"
)

type stubScorer struct {
	score int
}

func (s *stubScorer) AssessDimensions(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
	dims := make([]model.DimensionScore, 0, 4)
	for _, d := range types.AllDimensions() {
		ds := model.DimensionScore{Dimension: d, Score: s.score, Reasoning: "stub"}
		ds.Normalize()
		dims = append(dims, ds)
	}
	return dims, nil
}

func newTestServer(t *testing.T, repo *memory.Memory, opts ...httpctrl.Options) *httptest.Server {
	t.Helper()
	uc := usecase.New(repo, &stubScorer{score: 70})
	srv := httptest.NewServer(httpctrl.New(uc, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer(t *testing.T) {
	ctx := context.Background()

	t.Run("assess and read back", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Subject().Put(ctx, &model.Subject{ID: "subj-1", Name: "Test Subject"})).Required()
		srv := newTestServer(t, repo)

		resp, err := http.Post(srv.URL+"/api/assess/subj-1", "application/json", nil)
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusOK)

		var body struct {
			SubjectID string `json:"subject_id"`
			Score     int    `json:"score"`
			Level     string `json:"level"`
		}
		gt.NoError(t, json.NewDecoder(resp.Body).Decode(&body)).Required()
		gt.Value(t, body.SubjectID).Equal("subj-1")
		gt.Number(t, body.Score).Equal(70)
		gt.Value(t, body.Level).Equal("HIGH")

		profResp, err := http.Get(srv.URL + "/api/subjects/subj-1/profile")
		gt.NoError(t, err).Required()
		defer profResp.Body.Close()
		gt.Number(t, profResp.StatusCode).Equal(http.StatusOK)
	})

	t.Run("assess unknown subject returns 404", func(t *testing.T) {
		srv := newTestServer(t, memory.New())

		resp, err := http.Post(srv.URL+"/api/assess/subj-missing", "application/json", nil)
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusNotFound)
	})

	t.Run("high risk listing honors minScore", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Subject().Put(ctx, &model.Subject{ID: "subj-hr", Name: "High Risk"})).Required()
		srv := newTestServer(t, repo)

		resp, err := http.Post(srv.URL+"/api/assess/subj-hr", "application/json", nil)
		gt.NoError(t, err).Required()
		resp.Body.Close()

		listResp, err := http.Get(srv.URL + "/api/risk/high?minScore=60")
		gt.NoError(t, err).Required()
		defer listResp.Body.Close()
		gt.Number(t, listResp.StatusCode).Equal(http.StatusOK)

		var body struct {
			Profiles []struct {
				SubjectID string `json:"subject_id"`
				Score     int    `json:"score"`
			} `json:"profiles"`
		}
		gt.NoError(t, json.NewDecoder(listResp.Body).Decode(&body)).Required()
		gt.Number(t, len(body.Profiles)).Equal(1)
		gt.Value(t, body.Profiles[0].SubjectID).Equal("subj-hr")

		emptyResp, err := http.Get(srv.URL + "/api/risk/high?minScore=90")
		gt.NoError(t, err).Required()
		defer emptyResp.Body.Close()

		var empty struct {
			Profiles []json.RawMessage `json:"profiles"`
		}
		gt.NoError(t, json.NewDecoder(emptyResp.Body).Decode(&empty)).Required()
		gt.Number(t, len(empty.Profiles)).Equal(0)
	})

	t.Run("invalid minScore returns 400", func(t *testing.T) {
		srv := newTestServer(t, memory.New())

		resp, err := http.Get(srv.URL + "/api/risk/high?minScore=lots")
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusBadRequest)
	})

	t.Run("sweep processes backlog", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Subject().Put(ctx, &model.Subject{ID: "subj-a", Name: "A"})).Required()
		gt.NoError(t, repo.Subject().Put(ctx, &model.Subject{ID: "subj-b", Name: "B"})).Required()
		srv := newTestServer(t, repo)

		resp, err := http.Post(srv.URL+"/api/sweep", "application/json", nil)
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusOK)

		var body struct {
			Processed int `json:"processed"`
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
		}
		gt.NoError(t, json.NewDecoder(resp.Body).Decode(&body)).Required()
		gt.Number(t, body.Processed).Equal(2)
		gt.Number(t, body.Succeeded).Equal(2)
		gt.Number(t, body.Failed).Equal(0)
	})

	t.Run("health endpoint", func(t *testing.T) {
		srv := newTestServer(t, memory.New())

		resp, err := http.Get(srv.URL + "/health")
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusOK)
	})
}

func TestBearerAuth(t *testing.T) {
	secret := []byte("test-signing-secret")

	newToken := func(t *testing.T, key []byte, expiry time.Time) string {
		t.Helper()
		token, err := jwt.NewBuilder().
			Issuer("riskcore-test").
			Expiration(expiry).
			Build()
		gt.NoError(t, err).Required()

		signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, key))
		gt.NoError(t, err).Required()
		return string(signed)
	}

	get := func(t *testing.T, srv *httptest.Server, token string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/risk/high", nil)
		gt.NoError(t, err).Required()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		gt.NoError(t, err).Required()
		return resp
	}

	t.Run("valid token passes", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), httpctrl.WithAuthSecret(secret))
		resp := get(t, srv, newToken(t, secret, time.Now().Add(time.Hour)))
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusOK)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), httpctrl.WithAuthSecret(secret))
		resp := get(t, srv, "")
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusUnauthorized)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), httpctrl.WithAuthSecret(secret))
		resp := get(t, srv, newToken(t, []byte("other-secret"), time.Now().Add(time.Hour)))
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusUnauthorized)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), httpctrl.WithAuthSecret(secret))
		resp := get(t, srv, newToken(t, secret, time.Now().Add(-time.Hour)))
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusUnauthorized)
	})

	t.Run("metrics stays open", func(t *testing.T) {
		srv := newTestServer(t, memory.New(), httpctrl.WithAuthSecret(secret))
		resp, err := http.Get(srv.URL + "/metrics")
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusOK)
	})
}
