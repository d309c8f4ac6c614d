package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/paper-agent/internal/domain"
	"github.com/helixir/paper-agent/internal/observability"
	"github.com/helixir/paper-agent/internal/repository"
)

// cycleTimeout bounds a full pipeline cycle triggered over the API.
const cycleTimeout = 30 * time.Minute

type processRequest struct {
	Force bool `json:"force"`
}

type setScoreRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

type rescoreRequest struct {
	Day string `json:"day" validate:"required,datetime=2006-01-02"`
}

// startCycle handles POST /api/v1/cycles. The cycle runs in the background;
// progress is observable via the log stream and metrics.
func (s *Server) startCycle(w http.ResponseWriter, r *http.Request) {
	// The cycle outlives the request, but keeps its correlation ID so cycle
	// logs can be traced back to the triggering call.
	reqID := observability.RequestIDFromContext(r.Context())
	go func() {
		ctx := context.Background()
		if reqID != "" {
			ctx = observability.WithRequestID(ctx, reqID)
		}
		ctx, cancel := context.WithTimeout(ctx, cycleTimeout)
		defer cancel()
		if _, err := s.pipeline.RunCycle(ctx, "api"); err != nil {
			s.logger.Error().Err(err).Msg("api-triggered cycle failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, cycleResponse{Status: "started"})
}

// listPapers handles GET /api/v1/papers with status/day/limit/offset params.
func (s *Server) listPapers(w http.ResponseWriter, r *http.Request) {
	filter := repository.PaperFilter{
		Day: r.URL.Query().Get("day"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		st := domain.Status(status)
		if !st.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(status))
			return
		}
		filter.Status = st
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	papers, total, err := s.paperRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list papers failed")
		writeDomainError(w, err)
		return
	}

	resp := listPapersResponse{
		Papers:     make([]paperResponse, 0, len(papers)),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	for _, p := range papers {
		resp.Papers = append(resp.Papers, domainPaperToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getPaper handles GET /api/v1/papers/{paperID}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	paper, err := s.paperRepo.GetByID(r.Context(), chi.URLParam(r, "paperID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// processPaper handles POST /api/v1/papers/{paperID}/process. Runs the
// single-paper pipeline, ingesting the paper from the feed source if it is
// not stored yet.
func (s *Server) processPaper(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	paper, err := s.pipeline.ProcessPaper(r.Context(), chi.URLParam(r, "paperID"), req.Force)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// setUserScore handles PATCH /api/v1/papers/{paperID}/score.
func (s *Server) setUserScore(w http.ResponseWriter, r *http.Request) {
	var req setScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "score must be an integer between 0 and 100")
		return
	}

	id := chi.URLParam(r, "paperID")
	if err := s.paperRepo.SetUserScore(r.Context(), id, *req.Score); err != nil {
		writeDomainError(w, err)
		return
	}

	paper, err := s.paperRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// rescoreDay handles POST /api/v1/papers/rescore. Force re-scores every
// paper published on the given day; cooldown-guarded.
func (s *Server) rescoreDay(w http.ResponseWriter, r *http.Request) {
	var req rescoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "day must be formatted YYYY-MM-DD")
		return
	}

	processed, err := s.pipeline.Rescore(r.Context(), req.Day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rescoreResponse{Day: req.Day, Processed: processed})
}

// resummarizePaper handles POST /api/v1/papers/{paperID}/resummarize.
func (s *Server) resummarizePaper(w http.ResponseWriter, r *http.Request) {
	paper, err := s.pipeline.Resummarize(r.Context(), chi.URLParam(r, "paperID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
