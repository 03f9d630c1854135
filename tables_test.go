package servicenow

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func connect(client *Client) {
	client.tokens.Store("tok123", 30*time.Minute)
}

func TestResourcePath(t *testing.T) {
	assert := assert.New(t)

	client := newTestClient(t, "")

	assert.Equal(
		"/api/now/table/x_test_app_submission?sysparm_limit=1",
		client.ResourcePath("submission", "sysparm_limit=1"),
	)

	// no trailing ? on an empty query
	assert.Equal(
		"/api/now/table/x_test_app_vehicle",
		client.ResourcePath("vehicle", ""),
	)
}

func TestSubmissionQuery(t *testing.T) {
	assert := assert.New(t)

	client := newTestClient(t, "")

	assert.Equal(
		"/api/now/table/x_test_app_vehicle?sysparm_query=submission=abc123&sysparm_display_value=true&sysparm_exclude_reference_link=false",
		client.SubmissionQuery("vehicle", "abc123", ""),
	)

	assert.Equal(
		"/api/now/table/x_test_app_workflow_stage?sysparm_query=submission=abc123^ORDERBYsequence&sysparm_display_value=true&sysparm_exclude_reference_link=false",
		client.SubmissionQuery("workflow_stage", "abc123", "ORDERBYsequence"),
	)
}

func TestDoRequiresToken(t *testing.T) {
	assert := assert.New(t)

	client := newTestClient(t, "")

	_, err := client.Do(ctx, "GET", "/api/now/table/x_test_app_submission", nil)
	assert.ErrorIs(err, ErrNotConnected)
}

func TestDoGoesThroughRelay(t *testing.T) {
	assert := assert.New(t)

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/api/servicenow-api", r.URL.Path)
		assert.Equal("/api/now/table/x_test_app_submission?sysparm_limit=1", r.URL.Query().Get("path"))
		assert.Equal("Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal("application/json", r.Header.Get("Accept"))

		w.Write([]byte(`{"result":[{"sys_id":{"display_value":"abc123","value":"abc123"}}]}`))
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)
	connect(client)

	records, err := client.List(ctx, client.ResourcePath("submission", "sysparm_limit=1"))
	assert.NoError(err)
	assert.Len(records, 1)
	assert.Equal("abc123", records[0].SysID())
}

func TestDoSurfacesAPIError(t *testing.T) {
	assert := assert.New(t)

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
		w.Write([]byte(`{"error":{"message":"Insufficient rights"}}`))
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)
	connect(client)

	_, err := client.List(ctx, client.ResourcePath("submission", ""))

	var apiErr *APIError
	assert.ErrorAs(err, &apiErr)
	assert.Equal(403, apiErr.Status)
	assert.Contains(apiErr.Body, "Insufficient rights")
}

func TestListMissingResultIsEmptySlice(t *testing.T) {
	assert := assert.New(t)

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)
	connect(client)

	records, err := client.List(ctx, client.ResourcePath("loss_run", ""))
	assert.NoError(err)
	assert.NotNil(records)
	assert.Empty(records)
}

func TestFetchReferralsDualShape(t *testing.T) {
	assert := assert.New(t)

	var paths []string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Query().Get("path"))
		w.Write([]byte(`{"result":[]}`))
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)
	connect(client)

	_, err := client.FetchReferrals(ctx, "abc123")
	assert.NoError(err)

	_, err = client.FetchReferrals(ctx, "")
	assert.NoError(err)

	assert.Equal(
		"/api/now/table/x_test_app_referral?sysparm_query=submission=abc123&sysparm_display_value=true&sysparm_exclude_reference_link=false",
		paths[0],
	)
	assert.Equal(
		"/api/now/table/x_test_app_referral?sysparm_display_value=true&sysparm_limit=500",
		paths[1],
	)
}

func TestCreateSendsPayload(t *testing.T) {
	assert := assert.New(t)

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("POST", r.Method)
		assert.Equal("/api/now/table/x_test_app_note", r.URL.Query().Get("path"))

		w.Write([]byte(`{"result":{"sys_id":"note1"}}`))
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)
	connect(client)

	record, err := client.CreateNote(ctx, map[string]string{"text": "looks fine"})
	assert.NoError(err)
	assert.Equal("note1", record.SysID())
}

func TestUpdatePatchesBySysId(t *testing.T) {
	assert := assert.New(t)

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("PATCH", r.Method)
		assert.Equal("/api/now/table/x_test_app_uw_task/task1", r.URL.Query().Get("path"))

		w.Write([]byte(`{"result":{"sys_id":"task1","status":"Complete"}}`))
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)
	connect(client)

	record, err := client.UpdateTask(ctx, "task1", map[string]string{"status": "Complete"})
	assert.NoError(err)
	assert.Equal("Complete", record["status"].Display())
}

func TestExpiredTokenFailsFast(t *testing.T) {
	assert := assert.New(t)

	called := false
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer relay.Close()

	client := newTestClient(t, relay.URL)

	now := time.Now()
	tokens := NewMemoryTokenStore()
	tokens.Now = func() time.Time { return now }
	client.tokens = tokens

	tokens.Store("tok123", 60*time.Second)
	now = now.Add(61 * time.Second)

	_, err := client.List(ctx, client.ResourcePath("submission", ""))
	assert.ErrorIs(err, ErrNotConnected)
	assert.False(called)
}
