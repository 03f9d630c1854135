package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ResourcePath composes the remote table path for a short table name. The
// short name is namespaced with the configured application prefix. An empty
// query yields no trailing "?".
func (c *Client) ResourcePath(shortName, query string) string {
	path := fmt.Sprintf("/api/now/table/%s_%s", c.appPrefix, shortName)
	if query != "" {
		path += "?" + query
	}
	return path
}

// SubmissionQuery builds a ResourcePath filtered on the submission
// reference field, AND-combined with extra when given. Display-value
// expansion is always requested so record fields arrive in the wrapped
// shape the mappers rely on.
func (c *Client) SubmissionQuery(shortName, submissionSysId, extra string) string {
	q := "submission=" + submissionSysId
	if extra != "" {
		q += "^" + extra
	}
	return c.ResourcePath(
		shortName,
		"sysparm_query="+q+"&sysparm_display_value=true&sysparm_exclude_reference_link=false",
	)
}

// Do issues an authenticated call through the table relay. The remote path
// rides in the relay's path query parameter so the instance host never
// appears in the caller's network graph. Any non-2xx status is terminal for
// the call; there is no retry.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	token, ok := c.tokens.Read()
	if !ok {
		return nil, ErrNotConnected
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	relayUrl := fmt.Sprintf("%s/api/servicenow-api?path=%s", c.relayBase, url.QueryEscape(path))

	req, err := http.NewRequestWithContext(ctx, method, relayUrl, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating table request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get response from table relay: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read table response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(b)}
	}

	return b, nil
}

// List runs a query expected to return {result: [...]}. A missing result
// key surfaces as an empty slice.
func (c *Client) List(ctx context.Context, path string) ([]Record, error) {
	b, err := c.Do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var out listResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("could not unmarshal table response: %w", err)
	}

	if out.Result == nil {
		return []Record{}, nil
	}

	return out.Result, nil
}

// Get fetches a single record by sys_id.
func (c *Client) Get(ctx context.Context, shortName, sysId string) (Record, error) {
	path := c.ResourcePath(shortName+"/"+sysId, "sysparm_display_value=true")

	b, err := c.Do(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var out recordResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("could not unmarshal record response: %w", err)
	}

	return out.Result, nil
}

// Create inserts a record into a table.
func (c *Client) Create(ctx context.Context, shortName string, payload any) (Record, error) {
	b, err := c.Do(ctx, "POST", c.ResourcePath(shortName, ""), payload)
	if err != nil {
		return nil, err
	}

	var out recordResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("could not unmarshal record response: %w", err)
	}

	return out.Result, nil
}

// Update patches a record by sys_id.
func (c *Client) Update(ctx context.Context, shortName, sysId string, payload any) (Record, error) {
	b, err := c.Do(ctx, "PATCH", c.ResourcePath(shortName+"/"+sysId, ""), payload)
	if err != nil {
		return nil, err
	}

	var out recordResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("could not unmarshal record response: %w", err)
	}

	return out.Result, nil
}

// TestConnection pulls a single submission as a connectivity probe and
// returns the sample record, nil when the table is empty.
func (c *Client) TestConnection(ctx context.Context) (Record, error) {
	records, err := c.List(ctx, c.ResourcePath(
		"submission",
		"sysparm_limit=1&sysparm_fields=sys_id,number,applicant_name,status",
	))
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

// FetchSubmissions lists submissions with display-value expansion. extra is
// appended to the query verbatim when given.
func (c *Client) FetchSubmissions(ctx context.Context, extra string) ([]Record, error) {
	q := "sysparm_display_value=true&sysparm_exclude_reference_link=false"
	if extra != "" {
		q += "&" + extra
	}
	return c.List(ctx, c.ResourcePath("submission", q))
}

func (c *Client) FetchSubmission(ctx context.Context, sysId string) (Record, error) {
	return c.Get(ctx, "submission", sysId)
}

func (c *Client) CreateSubmission(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "submission", payload)
}

func (c *Client) UpdateSubmission(ctx context.Context, sysId string, payload any) (Record, error) {
	return c.Update(ctx, "submission", sysId, payload)
}

func (c *Client) FetchVehicles(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("vehicle", submissionSysId, ""))
}

func (c *Client) CreateVehicle(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "vehicle", payload)
}

func (c *Client) FetchDrivers(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("driver", submissionSysId, ""))
}

func (c *Client) CreateDriver(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "driver", payload)
}

func (c *Client) FetchDriverCodes(ctx context.Context, driverSysId string) ([]Record, error) {
	return c.List(ctx, c.ResourcePath(
		"driver_code",
		"sysparm_query=driver="+driverSysId+"&sysparm_display_value=true",
	))
}

func (c *Client) CreateDriverCode(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "driver_code", payload)
}

func (c *Client) FetchDocuments(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("document", submissionSysId, ""))
}

func (c *Client) CreateDocument(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "document", payload)
}

func (c *Client) UpdateDocument(ctx context.Context, sysId string, payload any) (Record, error) {
	return c.Update(ctx, "document", sysId, payload)
}

func (c *Client) FetchIdpFields(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("idp_field", submissionSysId, ""))
}

func (c *Client) FetchIdpFieldsByDocument(ctx context.Context, documentSysId string) ([]Record, error) {
	return c.List(ctx, c.ResourcePath(
		"idp_field",
		"sysparm_query=document="+documentSysId+"&sysparm_display_value=true",
	))
}

func (c *Client) CreateIdpField(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "idp_field", payload)
}

func (c *Client) FetchLossRuns(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("loss_run", submissionSysId, ""))
}

func (c *Client) CreateLossRun(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "loss_run", payload)
}

func (c *Client) FetchWorkflowStages(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("workflow_stage", submissionSysId, "ORDERBYsequence"))
}

func (c *Client) UpdateWorkflowStage(ctx context.Context, sysId string, payload any) (Record, error) {
	return c.Update(ctx, "workflow_stage", sysId, payload)
}

func (c *Client) FetchTasks(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("uw_task", submissionSysId, ""))
}

func (c *Client) CreateTask(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "uw_task", payload)
}

func (c *Client) UpdateTask(ctx context.Context, sysId string, payload any) (Record, error) {
	return c.Update(ctx, "uw_task", sysId, payload)
}

func (c *Client) FetchNotes(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("note", submissionSysId, "ORDERBYDESCcreated_date"))
}

func (c *Client) CreateNote(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "note", payload)
}

func (c *Client) FetchMessages(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("message", submissionSysId, "ORDERBYDESCsent_date"))
}

func (c *Client) CreateMessage(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "message", payload)
}

func (c *Client) FetchReports(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("report", submissionSysId, ""))
}

func (c *Client) UpdateReport(ctx context.Context, sysId string, payload any) (Record, error) {
	return c.Update(ctx, "report", sysId, payload)
}

// FetchReferrals lists referrals for one submission, or every referral
// (capped at 500) when submissionSysId is empty. The unfiltered shape feeds
// the dashboard lookup maps so list screens avoid a call per row.
func (c *Client) FetchReferrals(ctx context.Context, submissionSysId string) ([]Record, error) {
	if submissionSysId == "" {
		return c.List(ctx, c.ResourcePath("referral", "sysparm_display_value=true&sysparm_limit=500"))
	}
	return c.List(ctx, c.SubmissionQuery("referral", submissionSysId, ""))
}

func (c *Client) CreateReferral(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "referral", payload)
}

// FetchAIRecommendations has the same dual shape as FetchReferrals.
func (c *Client) FetchAIRecommendations(ctx context.Context, submissionSysId string) ([]Record, error) {
	if submissionSysId == "" {
		return c.List(ctx, c.ResourcePath("ai_recommendation", "sysparm_display_value=true&sysparm_limit=500"))
	}
	return c.List(ctx, c.SubmissionQuery("ai_recommendation", submissionSysId, ""))
}

func (c *Client) CreateAIRecommendation(ctx context.Context, payload any) (Record, error) {
	return c.Create(ctx, "ai_recommendation", payload)
}

func (c *Client) FetchCompliance(ctx context.Context, submissionSysId string) ([]Record, error) {
	return c.List(ctx, c.SubmissionQuery("compliance", submissionSysId, ""))
}

func (c *Client) UpdateCompliance(ctx context.Context, sysId string, payload any) (Record, error) {
	return c.Update(ctx, "compliance", sysId, payload)
}
