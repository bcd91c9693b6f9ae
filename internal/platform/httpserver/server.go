package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	commitmentengine "tripweave/contexts/trip-planning/commitment-engine"
	planninghttpadapter "tripweave/contexts/trip-planning/commitment-engine/adapters/http"
	planningdomainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	planninghttp "tripweave/contexts/trip-planning/commitment-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tripweave/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	planning commitmentengine.Module
}

func New(planning commitmentengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		planning: planning,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/trips/{trip_id}/blocks/{block_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("DELETE /v1/trips/{trip_id}/blocks/{block_id}/votes/{activity_id}", s.handleRemoveVote)
	s.mux.HandleFunc("GET /v1/blocks/{block_id}/tally", s.handleBlockTally)

	s.mux.HandleFunc("POST /v1/trips/{trip_id}/blocks/{block_id}/proposals", s.handleProposeActivity)
	s.mux.HandleFunc("DELETE /v1/trips/{trip_id}/blocks/{block_id}/proposals/{activity_id}", s.handleWithdrawProposal)
	s.mux.HandleFunc("GET /v1/blocks/{block_id}/proposals", s.handleBlockProposals)

	s.mux.HandleFunc("POST /v1/trips/{trip_id}/blocks/{block_id}/commit", s.handleResolveCommit)
	s.mux.HandleFunc("DELETE /v1/trips/{trip_id}/blocks/{block_id}/commit", s.handleUncommitBlock)
	s.mux.HandleFunc("GET /v1/blocks/{block_id}/commit", s.handleBlockCommit)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	memberID := r.Header.Get("X-User-Id")
	if memberID == "" {
		writePlanningError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req planninghttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePlanningError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.planning.Handler.CastVoteHandler(
		r.Context(),
		r.PathValue("trip_id"),
		r.PathValue("block_id"),
		memberID,
		req,
	)
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveVote(w http.ResponseWriter, r *http.Request) {
	memberID := r.Header.Get("X-User-Id")
	if memberID == "" {
		writePlanningError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.planning.Handler.RemoveVoteHandler(
		r.Context(),
		r.PathValue("trip_id"),
		r.PathValue("block_id"),
		r.PathValue("activity_id"),
		memberID,
	)
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBlockTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.planning.Handler.BlockTallyHandler(r.Context(), r.PathValue("block_id"))
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProposeActivity(w http.ResponseWriter, r *http.Request) {
	memberID := r.Header.Get("X-User-Id")
	if memberID == "" {
		writePlanningError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req planninghttp.ProposeActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePlanningError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.planning.Handler.ProposeActivityHandler(
		r.Context(),
		r.PathValue("trip_id"),
		r.PathValue("block_id"),
		memberID,
		req,
	)
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawProposal(w http.ResponseWriter, r *http.Request) {
	memberID := r.Header.Get("X-User-Id")
	if memberID == "" {
		writePlanningError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.planning.Handler.WithdrawProposalHandler(
		r.Context(),
		r.PathValue("trip_id"),
		r.PathValue("block_id"),
		r.PathValue("activity_id"),
		memberID,
	)
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBlockProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.planning.Handler.BlockProposalsHandler(r.Context(), r.PathValue("block_id"))
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveCommit(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if actorID == "" {
		writePlanningError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	req := planninghttp.ResolveCommitRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writePlanningError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.planning.Handler.ResolveCommitHandler(
		r.Context(),
		r.PathValue("trip_id"),
		r.PathValue("block_id"),
		actorID,
		req,
	)
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUncommitBlock(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if actorID == "" {
		writePlanningError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	err := s.planning.Handler.UncommitBlockHandler(
		r.Context(),
		r.PathValue("trip_id"),
		r.PathValue("block_id"),
		actorID,
	)
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleBlockCommit(w http.ResponseWriter, r *http.Request) {
	resp, err := s.planning.Handler.BlockCommitHandler(r.Context(), r.PathValue("block_id"))
	if err != nil {
		writePlanningDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePlanningDomainError(w http.ResponseWriter, err error) {
	var duplicateBlocked *planningdomainerrors.DuplicateBlockedError
	if errors.As(err, &duplicateBlocked) {
		writeJSON(w, http.StatusConflict, planninghttp.ErrorResponse{
			Code:      "duplicate_blocked",
			Message:   err.Error(),
			Conflicts: planninghttpadapter.MapConflicts(duplicateBlocked.Conflicts),
		})
		return
	}

	switch {
	case errors.Is(err, planningdomainerrors.ErrInvalidInput):
		writePlanningError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, planningdomainerrors.ErrNotOrganizer):
		writePlanningError(w, http.StatusForbidden, "not_organizer", err.Error())
	case errors.Is(err, planningdomainerrors.ErrTripNotFound),
		errors.Is(err, planningdomainerrors.ErrBlockNotFound),
		errors.Is(err, planningdomainerrors.ErrMemberNotFound),
		errors.Is(err, planningdomainerrors.ErrCommitNotFound):
		writePlanningError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, planningdomainerrors.ErrBlockCommitted):
		writePlanningError(w, http.StatusConflict, "block_already_committed", err.Error())
	case errors.Is(err, planningdomainerrors.ErrCommitConflict):
		writePlanningError(w, http.StatusConflict, "commit_conflict", err.Error())
	case errors.Is(err, planningdomainerrors.ErrNoVotes):
		writePlanningError(w, http.StatusUnprocessableEntity, "no_votes", err.Error())
	case errors.Is(err, planningdomainerrors.ErrVotingClosed):
		writePlanningError(w, http.StatusUnprocessableEntity, "voting_closed", err.Error())
	case errors.Is(err, planningdomainerrors.ErrConflict):
		writePlanningError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writePlanningError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePlanningError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, planninghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
