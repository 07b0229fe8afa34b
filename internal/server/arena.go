// Package server adapts the arena service onto HTTP. The chat-platform
// presentation layer (embeds, slash commands) lives in a separate process
// and talks to these endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pvp-arena/internal/constants"
	"pvp-arena/internal/domain"
	"pvp-arena/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type ArenaServer struct {
	arena  *service.ArenaService
	logger zerolog.Logger
}

func NewArenaServer(arena *service.ArenaService, logger zerolog.Logger) *ArenaServer {
	return &ArenaServer{arena: arena, logger: logger}
}

func (s *ArenaServer) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/queue/join", s.handleJoin)
		r.Post("/queue/leave", s.handleLeave)
		r.Get("/queue/status/{discordID}", s.handleQueueStatus)
		r.Get("/queue/await/{discordID}", s.handleAwait)
		r.Post("/matches/resolve", s.handleResolve)
		r.Get("/players/{discordID}/profile", s.handleProfile)
		r.Get("/players/{discordID}/history", s.handleHistory)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/seasons/current", s.handleCurrentSeason)
	})
	r.Get("/healthz", s.handleHealth)
}

type joinRequest struct {
	DiscordID   string `json:"discord_id"`
	DisplayName string `json:"display_name"`
}

type joinResponse struct {
	Status            string              `json:"status"`
	Opponent          string              `json:"opponent,omitempty"`
	CooldownRemaining int64               `json:"cooldown_remaining_ms,omitempty"`
	Match             *domain.MatchRecord `json:"match,omitempty"`
}

func (s *ArenaServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DiscordID == "" {
		writeError(w, http.StatusBadRequest, "invalid join request")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.DiscordID
	}

	result, err := s.arena.JoinQueue(r.Context(), req.DiscordID, req.DisplayName)
	if errors.Is(err, domain.ErrCooldownActive) {
		writeJSON(w, http.StatusTooManyRequests, joinResponse{
			Status:            string(service.StatusCooldown),
			CooldownRemaining: result.CooldownRemaining.Milliseconds(),
		})
		return
	}
	if errors.Is(err, domain.ErrAlreadyQueued) {
		writeJSON(w, http.StatusConflict, joinResponse{Status: "already_in_queue"})
		return
	}
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}

	writeJSON(w, http.StatusOK, joinResponse{
		Status:   string(result.Status),
		Opponent: result.Opponent,
		Match:    result.Match,
	})
}

type leaveRequest struct {
	DiscordID string `json:"discord_id"`
}

func (s *ArenaServer) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DiscordID == "" {
		writeError(w, http.StatusBadRequest, "invalid leave request")
		return
	}

	left := s.arena.LeaveQueue(req.DiscordID)
	writeJSON(w, http.StatusOK, map[string]bool{"left": left})
}

func (s *ArenaServer) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	info := s.arena.QueueInfo(chi.URLParam(r, "discordID"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"waiting":        info.Waiting,
		"elapsed_ms":     info.Elapsed.Milliseconds(),
		"expanded_range": info.ExpandedRange,
	})
}

func (s *ArenaServer) handleAwait(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.arena.AwaitMatch(r.Context(), chi.URLParam(r, "discordID"))
	if errors.Is(err, domain.ErrNotQueued) {
		writeError(w, http.StatusNotFound, "player is not in the queue")
		return
	}
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}

	writeJSON(w, http.StatusOK, joinResponse{
		Status: string(outcome.Status),
		Match:  outcome.Match,
	})
}

type resolveRequest struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
}

func (s *ArenaServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerA == "" || req.PlayerB == "" || req.PlayerA == req.PlayerB {
		writeError(w, http.StatusBadRequest, "invalid resolve request")
		return
	}

	match, err := s.arena.ResolveMatch(r.Context(), req.PlayerA, req.PlayerB)
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *ArenaServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.arena.Profile(r.Context(), chi.URLParam(r, "discordID"))
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *ArenaServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, constants.DefaultHistoryLimit, constants.MaxHistoryLimit)

	history, err := s.arena.History(r.Context(), chi.URLParam(r, "discordID"), limit)
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *ArenaServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, constants.DefaultLeaderboardLimit, constants.MaxLeaderboardLimit)

	entries, err := s.arena.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type seasonResponse struct {
	ID           string              `json:"id"`
	Number       int                 `json:"number"`
	Name         string              `json:"name"`
	StartDate    string              `json:"start_date"`
	EndDate      string              `json:"end_date"`
	TotalMatches int64               `json:"total_matches"`
	RewardTiers  []domain.RewardTier `json:"reward_tiers"`
}

func (s *ArenaServer) handleCurrentSeason(w http.ResponseWriter, r *http.Request) {
	season, total, err := s.arena.SeasonOverview(r.Context())
	if err != nil {
		s.writeServiceError(w, r.Context(), err)
		return
	}

	writeJSON(w, http.StatusOK, seasonResponse{
		ID:           season.ID,
		Number:       season.Number,
		Name:         season.Name,
		StartDate:    season.StartDate.Format(time.RFC3339),
		EndDate:      season.EndDate.Format(time.RFC3339),
		TotalMatches: total,
		RewardTiers:  season.RewardTiers,
	})
}

func (s *ArenaServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *ArenaServer) writeServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotEligible):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPersistence):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "request cancelled")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
