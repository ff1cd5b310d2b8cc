package http

import (
	"encoding/json"
	"net/http"

	"github.com/pantheon-hub/underliv/internal/application/query"
	"github.com/pantheon-hub/underliv/internal/application/registry"
	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Pantheon UnderLiv API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":       "/health",
			"garments":     "/api/v1/garments",
			"leaderboard":  "/api/v1/leaderboard",
			"achievements": "/api/v1/achievements",
		},
	})
}

// handleHealth runs every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleReady handles the readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": status.Message,
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// GARMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// registryFor resolves the caller's registry. It writes 401 when the user
// header is missing and 503 when the saved collection cannot be read.
func (s *Server) registryFor(w http.ResponseWriter, r *http.Request) (*registry.Registry, bool) {
	owner := garment.OwnerID(r.Header.Get(UserHeader))
	if !owner.IsValid() {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "X-User-ID header is required")
		return nil, false
	}
	if s.deps.Garments == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Garment registry not configured")
		return nil, false
	}
	reg, err := s.deps.Garments.For(r.Context(), owner)
	if err != nil {
		s.writeDomainError(w, r, "LoadGarments", err)
		return nil, false
	}
	return reg, true
}

// handleListGarments handles GET /api/v1/garments
func (s *Server) handleListGarments(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registryFor(w, r)
	if !ok {
		return
	}
	items := reg.Garments()
	writeJSONWithMeta(w, r, http.StatusOK, toGarmentResponses(items, s.deps.Clock()), &ResponseMeta{TotalCount: len(items)})
}

// handleGetGarment handles GET /api/v1/garments/{id}
func (s *Server) handleGetGarment(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registryFor(w, r)
	if !ok {
		return
	}
	g, found := reg.Get(r.PathValue("id"))
	if !found {
		s.writeDomainError(w, r, "Get", shared.ErrGarmentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, toGarmentResponse(g, s.deps.Clock()))
}

// handleCreateGarment handles POST /api/v1/garments
func (s *Server) handleCreateGarment(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registryFor(w, r)
	if !ok {
		return
	}

	var req CreateGarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return
	}

	draft, err := req.Draft(reg.Owner())
	if err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_request", "purchase_date must be YYYY-MM-DD", err.Error())
		return
	}

	g, err := reg.Add(r.Context(), draft)
	if err != nil {
		s.writeDomainError(w, r, "Create", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toGarmentResponse(g, s.deps.Clock()))
}

// handlePatchGarment handles PATCH /api/v1/garments/{id}
// Body: {"action": "wash" | "retire"}.
func (s *Server) handlePatchGarment(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registryFor(w, r)
	if !ok {
		return
	}

	var req PatchGarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return
	}

	id := r.PathValue("id")
	current, found := reg.Get(id)
	if !found {
		s.writeDomainError(w, r, "Patch", shared.ErrGarmentNotFound)
		return
	}

	switch req.Action {
	case ActionWash:
		if current.Retired {
			s.writeDomainError(w, r, "Wash", shared.ErrGarmentRetired)
			return
		}
		res, washed := reg.Wash(r.Context(), id)
		if !washed {
			// Deleted or retired by a concurrent request.
			s.writeDomainError(w, r, "Wash", shared.ErrGarmentNotFound)
			return
		}
		writeJSON(w, r, http.StatusOK, PatchResponse{
			Garment:  toGarmentResponse(res.Garment, s.deps.Clock()),
			Unlocked: toAchievementResponses(res.Unlocked),
		})

	case ActionRetire:
		g, retired := reg.Retire(r.Context(), id)
		if !retired {
			// Already retired: retiring again changes nothing.
			g, found = reg.Get(id)
			if !found {
				s.writeDomainError(w, r, "Retire", shared.ErrGarmentNotFound)
				return
			}
		}
		writeJSON(w, r, http.StatusOK, PatchResponse{
			Garment:  toGarmentResponse(g, s.deps.Clock()),
			Unlocked: []AchievementResponse{},
		})

	default:
		s.writeDomainError(w, r, "Patch", shared.ErrUnknownAction)
	}
}

// handleDeleteGarment handles DELETE /api/v1/garments/{id}
func (s *Server) handleDeleteGarment(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registryFor(w, r)
	if !ok {
		return
	}
	if !reg.Delete(r.Context(), r.PathValue("id")) {
		s.writeDomainError(w, r, "Delete", shared.ErrGarmentNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD & CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard?limit=N
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.Leaderboard == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	limit, ok := getQueryParamInt(r, "limit", 0)
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
		return
	}

	result, err := s.deps.Leaderboard.Handle(r.Context(), query.GetLeaderboardQuery{Limit: limit})
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.writeDomainError(w, r, "Leaderboard", err)
		return
	}
	if len(result.Skipped) > 0 {
		logger.FromContext(r.Context()).Warn("leaderboard skipped owners", logger.Int("skipped", len(result.Skipped)))
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{TotalCount: result.Stats.TotalGarments})
}

// handleGetAchievements handles GET /api/v1/achievements
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, garment.Catalog())
}
