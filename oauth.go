package servicenow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// defaultExpiresIn is used when the token response omits expires_in.
const defaultExpiresIn = 1800 * time.Second

// Client talks to a ServiceNow instance through the two same-origin relay
// endpoints, holding the session credential and the pending OAuth state in
// its stores. The flow is the standard authorization-code grant: the state
// nonce is persisted before the redirect and consumed on the callback, so
// the two halves survive the full page navigation between them.
type Client struct {
	h            *http.Client
	instanceUrl  string
	clientId     string
	clientSecret string
	redirectUri  string
	appPrefix    string
	relayBase    string
	tokens       TokenStore
	states       StateStore
}

type ClientArgs struct {
	H            *http.Client
	InstanceUrl  string
	ClientId     string
	ClientSecret string
	RedirectUri  string
	AppPrefix    string
	RelayBase    string
	Tokens       TokenStore
	States       StateStore
}

func NewClient(args ClientArgs) (*Client, error) {
	if args.InstanceUrl == "" {
		return nil, fmt.Errorf("no instance url provided")
	}

	if args.ClientId == "" {
		return nil, fmt.Errorf("no client id provided")
	}

	if args.ClientSecret == "" {
		return nil, fmt.Errorf("no client secret provided")
	}

	if args.RedirectUri == "" {
		return nil, fmt.Errorf("no redirect uri provided")
	}

	if args.RelayBase == "" {
		return nil, fmt.Errorf("no relay base url provided")
	}

	if args.AppPrefix == "" {
		return nil, fmt.Errorf("no app table prefix provided")
	}

	if args.H == nil {
		args.H = &http.Client{
			Timeout: 5 * time.Second,
		}
	}

	if args.Tokens == nil {
		args.Tokens = NewMemoryTokenStore()
	}

	if args.States == nil {
		args.States = NewMemoryStateStore()
	}

	return &Client{
		h:            args.H,
		instanceUrl:  strings.TrimRight(args.InstanceUrl, "/"),
		clientId:     args.ClientId,
		clientSecret: args.ClientSecret,
		redirectUri:  args.RedirectUri,
		appPrefix:    args.AppPrefix,
		relayBase:    strings.TrimRight(args.RelayBase, "/"),
		tokens:       args.Tokens,
		states:       args.States,
	}, nil
}

// AuthorizeURL generates a fresh state nonce, saves it as the pending
// state, and returns the instance authorization URL the browser should be
// sent to. The caller performs the redirect; this process will not see the
// user again until the callback arrives.
func (c *Client) AuthorizeURL() string {
	nonce := uuid.NewString()
	c.states.Save(nonce)

	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.clientId},
		"redirect_uri":  {c.redirectUri},
		"state":         {nonce},
	}

	return fmt.Sprintf("%s/oauth_auth.do?%s", c.instanceUrl, params.Encode())
}

// ExchangeCode completes the authorization-code grant. The pending nonce is
// consumed whether or not it matches, so a replayed callback fails. The
// exchange goes through the token relay, never directly to the instance, to
// keep the client secret on the server side of the relay.
func (c *Client) ExchangeCode(ctx context.Context, code, returnedState string) (string, error) {
	saved, ok := c.states.Consume()
	if !ok || returnedState == "" || saved != returnedState {
		return "", ErrStateMismatch
	}

	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.redirectUri},
		"client_id":     {c.clientId},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.relayBase+"/api/servicenow-oauth", strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating token exchange request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.h.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not get response from token relay: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read token exchange body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TokenExchangeError{Status: resp.StatusCode, Body: string(b)}
	}

	var tokenResponse TokenResponse
	if err := json.Unmarshal(b, &tokenResponse); err != nil {
		return "", fmt.Errorf("could not unmarshal token response: %w", err)
	}

	if tokenResponse.AccessToken == "" {
		return "", &NoAccessTokenError{
			Code:        tokenResponse.Error,
			Description: tokenResponse.ErrorDescription,
		}
	}

	expiresIn := defaultExpiresIn
	if tokenResponse.ExpiresIn > 0 {
		expiresIn = time.Duration(tokenResponse.ExpiresIn) * time.Second
	}

	c.tokens.Store(tokenResponse.AccessToken, expiresIn)

	return tokenResponse.AccessToken, nil
}

// Disconnect drops the session credential. Always succeeds.
func (c *Client) Disconnect() {
	c.tokens.Clear()
}

// IsConnected reports whether an unexpired token is held.
func (c *Client) IsConnected() bool {
	_, ok := c.tokens.Read()
	return ok
}
