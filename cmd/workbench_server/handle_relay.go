package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleOauthRelay forwards the token exchange body to the instance's token
// endpoint. The browser never talks to the instance directly and the
// instance host stays out of its network graph.
func (s *WorkbenchServer) handleOauthRelay(e echo.Context) error {
	body, err := io.ReadAll(e.Request().Body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		e.Request().Context(),
		"POST",
		strings.TrimRight(s.cfg.InstanceUrl, "/")+"/oauth_token.do",
		strings.NewReader(string(body)),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.h.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return e.Blob(resp.StatusCode, "application/json", respBody)
}

// handleApiRelay forwards an authenticated table call to the instance,
// carrying the caller's bearer token through untouched. Only table API
// paths are forwarded.
func (s *WorkbenchServer) handleApiRelay(e echo.Context) error {
	path := e.QueryParam("path")
	if !strings.HasPrefix(path, "/api/now/") {
		return e.String(400, fmt.Sprintf("refusing to relay path %q", path))
	}

	body, err := io.ReadAll(e.Request().Body)
	if err != nil {
		return err
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(
		e.Request().Context(),
		e.Request().Method,
		strings.TrimRight(s.cfg.InstanceUrl, "/")+path,
		reader,
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", e.Request().Header.Get("Authorization"))

	resp, err := s.h.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return e.Blob(resp.StatusCode, "application/json", respBody)
}
