package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/usecase"
	"github.com/route07/riskcore/pkg/utils/errutil"
)

type dimensionResponse struct {
	Dimension string   `json:"dimension"`
	Score     int      `json:"score"`
	Level     string   `json:"level"`
	Factors   []string `json:"factors,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
}

type factorResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

type assessmentResponse struct {
	SubjectID  string              `json:"subject_id"`
	Score      int                 `json:"score"`
	Level      string              `json:"level"`
	Dimensions []dimensionResponse `json:"dimensions"`
	Factors    []factorResponse    `json:"factors"`
	Confidence int                 `json:"confidence"`
	Sources    []string            `json:"sources"`
	AssessedAt time.Time           `json:"assessed_at"`
}

type profileResponse struct {
	SubjectID   string              `json:"subject_id"`
	Score       int                 `json:"score"`
	Level       string              `json:"level"`
	Dimensions  []dimensionResponse `json:"dimensions"`
	Factors     []factorResponse    `json:"factors"`
	LastUpdated time.Time           `json:"last_updated"`
}

type sweepResponse struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type auditEventResponse struct {
	ID        string         `json:"id"`
	Scores    map[string]int `json:"dimension_scores"`
	Score     int            `json:"aggregate_score"`
	Level     string         `json:"aggregate_level"`
	Sources   []string       `json:"sources"`
	CreatedAt time.Time      `json:"created_at"`
}

func toDimensionResponses(dims []model.DimensionScore) []dimensionResponse {
	out := make([]dimensionResponse, len(dims))
	for i, d := range dims {
		out[i] = dimensionResponse{
			Dimension: d.Dimension.String(),
			Score:     d.Score,
			Level:     d.Level.String(),
			Factors:   d.Factors,
			Reasoning: d.Reasoning,
		}
	}
	return out
}

func toFactorResponses(factors []model.RiskFactor) []factorResponse {
	out := make([]factorResponse, len(factors))
	for i, f := range factors {
		out[i] = factorResponse{
			ID:          f.ID.String(),
			Type:        f.Type.String(),
			Description: f.Description,
			Severity:    f.Severity.String(),
			Source:      f.Source.String(),
			CreatedAt:   f.CreatedAt,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func (s *Server) assessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := types.SubjectID(chi.URLParam(r, "subjectID"))

		result, err := s.uc.Assess(r.Context(), subjectID)
		if err != nil {
			if errors.Is(err, usecase.ErrSubjectNotFound) {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, assessmentResponse{
			SubjectID:  result.SubjectID.String(),
			Score:      result.AggregateScore,
			Level:      result.AggregateLevel.String(),
			Dimensions: toDimensionResponses(result.Dimensions),
			Factors:    toFactorResponses(result.Factors),
			Confidence: result.WebIntel.Confidence,
			Sources:    result.WebIntel.Sources,
			AssessedAt: result.AssessedAt,
		})
	}
}

func (s *Server) highRiskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minScore := 60
		if raw := r.URL.Query().Get("minScore"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid minScore"), http.StatusBadRequest)
				return
			}
			minScore = parsed
		}

		profiles, err := s.uc.ListHighRisk(r.Context(), minScore)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		out := make([]profileResponse, len(profiles))
		for i, p := range profiles {
			out[i] = profileResponse{
				SubjectID:   p.SubjectID.String(),
				Score:       p.AggregateScore,
				Level:       p.AggregateLevel.String(),
				Dimensions:  toDimensionResponses(p.Dimensions()),
				Factors:     toFactorResponses(p.Factors),
				LastUpdated: p.LastUpdated,
			}
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"profiles": out})
	}
}

func (s *Server) sweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := s.sweepLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				errutil.HandleHTTP(r.Context(), w, goerr.New("invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
				return
			}
			if parsed < limit {
				limit = parsed
			}
		}

		summary, err := s.uc.Sweep(r.Context(), limit)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, sweepResponse{
			Processed: summary.Processed,
			Succeeded: summary.Succeeded,
			Failed:    summary.Failed,
		})
	}
}

func (s *Server) profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := types.SubjectID(chi.URLParam(r, "subjectID"))

		profile, err := s.uc.GetProfile(r.Context(), subjectID)
		if err != nil {
			if errors.Is(err, usecase.ErrSubjectNotFound) {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, profileResponse{
			SubjectID:   profile.SubjectID.String(),
			Score:       profile.AggregateScore,
			Level:       profile.AggregateLevel.String(),
			Dimensions:  toDimensionResponses(profile.Dimensions()),
			Factors:     toFactorResponses(profile.Factors),
			LastUpdated: profile.LastUpdated,
		})
	}
}

func (s *Server) auditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := types.SubjectID(chi.URLParam(r, "subjectID"))

		events, err := s.uc.ListAuditEvents(r.Context(), subjectID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		out := make([]auditEventResponse, len(events))
		for i, e := range events {
			scores := make(map[string]int, len(e.DimensionScores))
			for dim, score := range e.DimensionScores {
				scores[dim.String()] = score
			}
			out[i] = auditEventResponse{
				ID:        e.ID.String(),
				Scores:    scores,
				Score:     e.AggregateScore,
				Level:     e.AggregateLevel.String(),
				Sources:   e.Sources,
				CreatedAt: e.CreatedAt,
			}
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"events": out})
	}
}
