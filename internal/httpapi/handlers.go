package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mikey/shortlist-watcher/internal/adapters/archive"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/pipeline"
	"github.com/mikey/shortlist-watcher/internal/runner"
	"go.uber.org/zap"
)

const (
	defaultLogLimit   = 200
	defaultMatchLimit = 50
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleLogs(c echo.Context) error {
	limit, err := intParam(c, "limit", defaultLogLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	sinceID, err := intParam(c, "since_id", 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "since_id must be an integer")
	}

	items := s.deps.Stream.Recent(limit, int64(sinceID))
	return c.JSON(http.StatusOK, LogsResponse{
		Success: true,
		Items:   items,
		Count:   len(items),
	})
}

func (s *Server) handleState(c echo.Context) error {
	st := s.deps.State.Load()
	counts := st.Counts()
	return c.JSON(http.StatusOK, StateResponse{
		State: st,
		Stats: StateStats{
			ConfirmedCount:     counts[core.ConfirmedMatch],
			PossibilitiesCount: counts[core.Possibility],
			PartialCount:       counts[core.PartialMatch],
			LastMessageID:      st.LastMessageID,
		},
	})
}

func (s *Server) handleMatches(c echo.Context) error {
	limit, err := intParam(c, "limit", defaultMatchLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}

	st := s.deps.State.Load()
	resp := MatchesResponse{
		Confirmed:     st.ConfirmedMatches,
		Possibilities: st.Possibilities,
		Partial:       st.PartialMatches,
	}
	if s.deps.Archive != nil {
		artifacts, err := s.deps.Archive.Recent(c.Request().Context(), limit)
		if err != nil {
			s.logger.Warn("Failed to read match archive", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to read match archive")
		}
		resp.Artifacts = artifacts
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMatch(c echo.Context) error {
	if s.deps.Archive == nil {
		return echo.NewHTTPError(http.StatusNotFound, "match archive is disabled")
	}
	artifact, err := s.deps.Archive.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, archive.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "match not found")
	}
	if err != nil {
		s.logger.Warn("Failed to read match artifact", zap.String("id", c.Param("id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read match artifact")
	}
	return c.JSON(http.StatusOK, artifact)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	p, err := s.deps.Profiles.Load()
	if err != nil {
		s.logger.Error("Failed to load profile", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("Invalid profile update", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.deps.Profiles.Load()
	if err != nil {
		s.logger.Error("Failed to load profile", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}
	req.apply(&p)
	if err := s.deps.Profiles.Save(p); err != nil {
		s.logger.Error("Failed to save profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, MessageResponse{Success: false, Message: err.Error()})
	}

	s.logger.Info("Profile updated via API", zap.String("name", p.Name))
	return c.JSON(http.StatusOK, ProfileResponse{Success: true, Message: "Profile updated", Profile: p})
}

func (s *Server) handleCheckEmail(c echo.Context) error {
	res, err := s.deps.Watcher.CheckNow(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, MessageResponse{Success: false, Message: err.Error()})
	}

	switch res.Outcome {
	case pipeline.OutcomeEmpty:
		return c.JSON(http.StatusNotFound, CheckResponse{Success: false, Message: "No new emails found", Result: res})
	case pipeline.OutcomeSkipped:
		return c.JSON(http.StatusOK, CheckResponse{Success: false, Message: "Email already processed", Result: res})
	}

	subject := ""
	if res.Evaluation != nil {
		subject = res.Evaluation.Subject
	}
	return c.JSON(http.StatusOK, CheckResponse{
		Success: true,
		Message: "Processed email: " + subject,
		Result:  res,
	})
}

func (s *Server) handleBackfill(c echo.Context) error {
	req := BackfillRequest{Count: pipeline.DefaultBackfill}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	count := pipeline.ClampBackfill(req.Count)

	id := s.deps.Watcher.Backfill(count)
	return c.JSON(http.StatusAccepted, BackfillResponse{
		Success: true,
		Message: "Backfill started for latest " + strconv.Itoa(count) + " emails",
		JobID:   id,
		Count:   count,
	})
}

func (s *Server) handleBackfillJob(c echo.Context) error {
	job, ok := s.deps.Watcher.Job(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "backfill job not found")
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleRunnerStart(c echo.Context) error {
	err := s.deps.Watcher.Start()
	switch {
	case errors.Is(err, runner.ErrAlreadyRunning):
		return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Runner already running"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, MessageResponse{Success: false, Message: err.Error()})
	}
	s.logger.Info("Runner started via API")
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Runner started"})
}

func (s *Server) handleRunnerStop(c echo.Context) error {
	err := s.deps.Watcher.Stop()
	switch {
	case errors.Is(err, runner.ErrNotRunning):
		return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Runner not running"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, MessageResponse{Success: false, Message: err.Error()})
	}
	s.logger.Info("Runner stopped via API")
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Runner stopped"})
}

func (s *Server) handleRunnerStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Watcher.Status())
}

// intParam reads an optional integer query parameter
func intParam(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
