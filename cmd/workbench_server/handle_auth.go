package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	servicenow "github.com/uwbench/servicenow-uw-golang"
)

// sessionId returns the stable id for this browser session, minting one on
// first contact.
func (s *WorkbenchServer) sessionId(e echo.Context) (string, error) {
	sess, err := session.Get("session", e)
	if err != nil {
		return "", err
	}

	if sid, ok := sess.Values["sid"].(string); ok && sid != "" {
		return sid, nil
	}

	sid := uuid.NewString()

	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
	}
	sess.Values["sid"] = sid

	if err := sess.Save(e.Request(), e.Response()); err != nil {
		return "", err
	}

	return sid, nil
}

func (s *WorkbenchServer) handleConnect(e echo.Context) error {
	sid, err := s.sessionId(e)
	if err != nil {
		return err
	}

	client, err := s.clientForSession(sid)
	if err != nil {
		return err
	}

	return e.Redirect(302, client.AuthorizeURL())
}

func (s *WorkbenchServer) handleCallback(e echo.Context) error {
	if authErr := e.QueryParam("error"); authErr != "" {
		return e.Redirect(302, "/?e="+url.QueryEscape(authErr))
	}

	resCode := e.QueryParam("code")
	resState := e.QueryParam("state")

	if resCode == "" || resState == "" {
		return fmt.Errorf("callback missing needed parameters")
	}

	sid, err := s.sessionId(e)
	if err != nil {
		return err
	}

	client, err := s.clientForSession(sid)
	if err != nil {
		return err
	}

	if _, err := client.ExchangeCode(e.Request().Context(), resCode, resState); err != nil {
		if errors.Is(err, servicenow.ErrStateMismatch) {
			return e.Redirect(302, "/?e=state-mismatch")
		}
		return err
	}

	return e.Redirect(302, "/")
}

func (s *WorkbenchServer) handleDisconnect(e echo.Context) error {
	sid, err := s.sessionId(e)
	if err != nil {
		return err
	}

	client, err := s.clientForSession(sid)
	if err != nil {
		return err
	}

	client.Disconnect()

	return e.Redirect(302, "/")
}

func (s *WorkbenchServer) handleStatus(e echo.Context) error {
	sid, err := s.sessionId(e)
	if err != nil {
		return err
	}

	client, err := s.clientForSession(sid)
	if err != nil {
		return err
	}

	status := map[string]any{
		"connected": client.IsConnected(),
	}

	if client.IsConnected() {
		sample, err := client.TestConnection(e.Request().Context())
		if err == nil && sample != nil {
			status["sample"] = sample
		}
	}

	return e.JSON(200, status)
}
