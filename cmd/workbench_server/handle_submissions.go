package main

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"

	servicenow "github.com/uwbench/servicenow-uw-golang"
)

// handleDashboard serves the list screen: every submission with its
// referral and AI recommendation joined on from two unfiltered lookup
// fetches rather than a call per row.
func (s *WorkbenchServer) handleDashboard(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	ctx := e.Request().Context()

	records, err := client.FetchSubmissions(ctx, e.QueryParam("params"))
	if err != nil {
		return s.apiError(e, err)
	}

	lookups, err := client.FetchDashboardLookups(ctx)
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(200, servicenow.MapSubmissions(records, lookups))
}

func (s *WorkbenchServer) handleSubmissions(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	records, err := client.FetchSubmissions(e.Request().Context(), e.QueryParam("params"))
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(200, records)
}

func (s *WorkbenchServer) handleCreateSubmission(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	payload, err := decodePayload(e)
	if err != nil {
		return err
	}

	record, err := client.CreateSubmission(e.Request().Context(), payload)
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(201, record)
}

// handleBundle serves the workbench view: all twelve child tables for one
// submission in a single response.
func (s *WorkbenchServer) handleBundle(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	bundle, err := client.FetchAllSubmissionData(e.Request().Context(), e.Param("sysId"))
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(200, bundle)
}

func (s *WorkbenchServer) handleCreateNote(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	payload, err := decodePayload(e)
	if err != nil {
		return err
	}
	payload["submission"] = e.Param("sysId")

	record, err := client.CreateNote(e.Request().Context(), payload)
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(201, record)
}

func (s *WorkbenchServer) handleCreateMessage(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	payload, err := decodePayload(e)
	if err != nil {
		return err
	}
	payload["submission"] = e.Param("sysId")

	record, err := client.CreateMessage(e.Request().Context(), payload)
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(201, record)
}

func (s *WorkbenchServer) handleUpdateTask(e echo.Context) error {
	client, err := s.connectedClient(e)
	if err != nil {
		return err
	}

	payload, err := decodePayload(e)
	if err != nil {
		return err
	}

	record, err := client.UpdateTask(e.Request().Context(), e.Param("sysId"), payload)
	if err != nil {
		return s.apiError(e, err)
	}

	return e.JSON(200, record)
}

func (s *WorkbenchServer) connectedClient(e echo.Context) (*servicenow.Client, error) {
	sid, err := s.sessionId(e)
	if err != nil {
		return nil, err
	}

	return s.clientForSession(sid)
}

// apiError maps the library's error taxonomy onto HTTP responses the UI can
// render. Failures are surfaced, never retried.
func (s *WorkbenchServer) apiError(e echo.Context, err error) error {
	if errors.Is(err, servicenow.ErrNotConnected) {
		return e.JSON(401, map[string]string{"error": "not connected"})
	}

	var apiErr *servicenow.APIError
	if errors.As(err, &apiErr) {
		return e.JSON(502, map[string]any{
			"error":  "servicenow api error",
			"status": apiErr.Status,
			"body":   apiErr.Body,
		})
	}

	return err
}

func decodePayload(e echo.Context) (map[string]any, error) {
	payload := map[string]any{}
	if err := json.NewDecoder(e.Request().Body).Decode(&payload); err != nil {
		return nil, echo.NewHTTPError(400, "invalid json payload")
	}
	return payload, nil
}
