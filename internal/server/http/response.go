package httpserver

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/helixir/paper-agent/internal/domain"
	"github.com/helixir/paper-agent/internal/pipeline"
)

type paperResponse struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Abstract            string    `json:"abstract,omitempty"`
	Authors             []string  `json:"authors"`
	PublishedAt         time.Time `json:"published_at"`
	CategoryPrimary     string    `json:"category_primary,omitempty"`
	PDFURL              string    `json:"pdf_url,omitempty"`
	Status              string    `json:"status"`
	Score               *int      `json:"score,omitempty"`
	UserScore           *int      `json:"user_score,omitempty"`
	ScoreReason         *string   `json:"score_reason,omitempty"`
	MainAffiliation     *string   `json:"main_affiliation,omitempty"`
	MainCompany         *string   `json:"main_company,omitempty"`
	MainUniversity      *string   `json:"main_university,omitempty"`
	SummaryPersonalized *string   `json:"summary_personalized,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type listPapersResponse struct {
	Papers     []paperResponse `json:"papers"`
	TotalCount int64           `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

type cycleResponse struct {
	Status string               `json:"status"`
	Stats  *pipeline.CycleStats `json:"stats,omitempty"`
}

type rescoreResponse struct {
	Day       string `json:"day"`
	Processed int    `json:"processed"`
}

type importanceResponse struct {
	Name      string `json:"name"`
	Important bool   `json:"important"`
}

func domainPaperToResponse(p *domain.Paper) paperResponse {
	authors := p.AuthorsList()
	if authors == nil {
		authors = []string{}
	}
	return paperResponse{
		ID:                  p.ID,
		Title:               p.Title,
		Abstract:            p.Abstract,
		Authors:             authors,
		PublishedAt:         p.PublishedAt,
		CategoryPrimary:     p.CategoryPrimary,
		PDFURL:              p.PDFURL,
		Status:              string(p.Status),
		Score:               p.Score,
		UserScore:           p.UserScore,
		ScoreReason:         p.ScoreReason,
		MainAffiliation:     p.MainAffiliation,
		MainCompany:         p.MainCompany,
		MainUniversity:      p.MainUniversity,
		SummaryPersonalized: p.SummaryPersonalized,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps domain errors onto HTTP status codes without
// leaking internals for unexpected failures.
func writeDomainError(w http.ResponseWriter, err error) {
	var rlErr *domain.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		retryAfter := int(math.Ceil(rlErr.RetryAfter.Seconds()))
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":               rlErr.Error(),
			"retry_after_seconds": retryAfter,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
