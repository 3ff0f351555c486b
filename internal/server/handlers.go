package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mark3labs/applywiz/internal/api"
	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/store"
)

var errDraftNotFound = echo.NewHTTPError(http.StatusNotFound, "draft not found")

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) stepsConfig(c echo.Context) error {
	if _, err := scholarshipParam(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.steps)
}

func (s *Server) loadDraft(c echo.Context) error {
	id, err := scholarshipParam(c)
	if err != nil {
		return err
	}

	draft, err := s.repo.LoadDraft(c.Request().Context(), ownerOf(c), id)
	if errors.Is(err, store.ErrNoDraft) {
		s.metrics.DraftsLoaded.WithLabelValues("not_found").Inc()
		return errDraftNotFound
	}
	if err != nil {
		return err
	}
	s.metrics.DraftsLoaded.WithLabelValues("found").Inc()

	return c.JSON(http.StatusOK, api.Draft{
		ScholarshipID: draft.ScholarshipID,
		CurrentStep:   draft.CurrentStep,
		DraftData:     draft.DraftData,
		LastSavedAt:   draft.LastSavedAt,
	})
}

func (s *Server) saveDraft(c echo.Context) error {
	req := new(api.SaveDraftRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if req.ScholarshipID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "scholarship_id is required")
	}
	if !json.Valid([]byte(req.DraftData)) {
		return echo.NewHTTPError(http.StatusBadRequest, "draft_data must be serialized JSON")
	}

	if _, err := s.repo.SaveDraft(c.Request().Context(), ownerOf(c), req.ScholarshipID, req.CurrentStep, req.DraftData, req.AutoSave); err != nil {
		return err
	}
	s.metrics.DraftsSaved.WithLabelValues(strconv.FormatBool(req.AutoSave)).Inc()

	return c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}

func (s *Server) submitApplication(c echo.Context) error {
	req := new(api.SubmitRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if req.ScholarshipID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "scholarship_id is required")
	}
	ctx := c.Request().Context()
	owner := ownerOf(c)

	if req.SaveAsDraft {
		if !json.Valid([]byte(req.StepData)) {
			return echo.NewHTTPError(http.StatusBadRequest, "step_data must be serialized JSON")
		}
		if _, err := s.repo.SaveDraft(ctx, owner, req.ScholarshipID, req.Step, req.StepData, false); err != nil {
			return err
		}
		s.metrics.DraftsSaved.WithLabelValues("false").Inc()
		return c.JSON(http.StatusOK, api.SubmitResponse{Success: true})
	}

	if !req.IsComplete {
		s.metrics.SubmissionFailures.WithLabelValues("incomplete").Inc()
		return c.JSON(http.StatusBadRequest, api.SubmitResponse{Error: "application is not complete"})
	}
	if err := validateApplication(req.StepData); err != nil {
		s.metrics.SubmissionFailures.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusUnprocessableEntity, api.SubmitResponse{Error: err.Error()})
	}

	app, err := s.repo.Submit(ctx, owner, req.ScholarshipID, req.Step, req.StepData)
	if err != nil {
		s.metrics.SubmissionFailures.WithLabelValues("storage").Inc()
		return err
	}
	s.metrics.Submissions.Inc()
	logger.Info("Application %s submitted by %s for scholarship %d", app.ID, owner, req.ScholarshipID)

	return c.JSON(http.StatusOK, api.SubmitResponse{
		Success: true,
		Data:    api.SubmitData{ApplicationID: api.ApplicationID(app.ID)},
	})
}

func scholarshipParam(c echo.Context) (int, error) {
	raw := c.QueryParam("scholarship_id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "scholarship_id must be a positive integer")
	}
	return id, nil
}
