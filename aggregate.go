package servicenow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SubmissionBundle is the merged result of every child-table query for one
// submission. Slices are never nil; an empty table shows as an empty slice.
type SubmissionBundle struct {
	Vehicles          []Record
	Drivers           []Record
	Documents         []Record
	LossRuns          []Record
	WorkflowStages    []Record
	Tasks             []Record
	Notes             []Record
	Messages          []Record
	Reports           []Record
	Referrals         []Record
	AIRecommendations []Record
	Compliance        []Record
}

// FetchAllSubmissionData fans out the twelve per-submission queries
// concurrently and joins all-or-nothing: the first failure cancels the
// remaining in-flight calls and the whole bundle fails with that table's
// error. There is no partial-success fallback.
func (c *Client) FetchAllSubmissionData(ctx context.Context, submissionSysId string) (*SubmissionBundle, error) {
	g, ctx := errgroup.WithContext(ctx)

	var bundle SubmissionBundle

	fetch := func(table string, dst *[]Record, fn func(context.Context, string) ([]Record, error)) {
		g.Go(func() error {
			records, err := fn(ctx, submissionSysId)
			if err != nil {
				return fmt.Errorf("%s: %w", table, err)
			}
			*dst = records
			return nil
		})
	}

	fetch("vehicle", &bundle.Vehicles, c.FetchVehicles)
	fetch("driver", &bundle.Drivers, c.FetchDrivers)
	fetch("document", &bundle.Documents, c.FetchDocuments)
	fetch("loss_run", &bundle.LossRuns, c.FetchLossRuns)
	fetch("workflow_stage", &bundle.WorkflowStages, c.FetchWorkflowStages)
	fetch("uw_task", &bundle.Tasks, c.FetchTasks)
	fetch("note", &bundle.Notes, c.FetchNotes)
	fetch("message", &bundle.Messages, c.FetchMessages)
	fetch("report", &bundle.Reports, c.FetchReports)
	fetch("referral", &bundle.Referrals, c.FetchReferrals)
	fetch("ai_recommendation", &bundle.AIRecommendations, c.FetchAIRecommendations)
	fetch("compliance", &bundle.Compliance, c.FetchCompliance)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &bundle, nil
}

// DashboardLookups holds the referral and AI recommendation collections
// fetched without a submission filter, indexed by the sys_id of the
// submission each record points at. One round trip per table serves every
// row on a list screen.
type DashboardLookups struct {
	ReferralsBySubmission map[string]Record
	AIBySubmission        map[string]Record
}

// FetchDashboardLookups pulls both lookup tables concurrently with the same
// all-or-nothing join as the aggregate.
func (c *Client) FetchDashboardLookups(ctx context.Context) (*DashboardLookups, error) {
	g, ctx := errgroup.WithContext(ctx)

	var referrals, aiRecs []Record

	g.Go(func() error {
		records, err := c.FetchReferrals(ctx, "")
		if err != nil {
			return fmt.Errorf("referral: %w", err)
		}
		referrals = records
		return nil
	})

	g.Go(func() error {
		records, err := c.FetchAIRecommendations(ctx, "")
		if err != nil {
			return fmt.Errorf("ai_recommendation: %w", err)
		}
		aiRecs = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DashboardLookups{
		ReferralsBySubmission: indexBySubmission(referrals),
		AIBySubmission:        indexBySubmission(aiRecs),
	}, nil
}

// indexBySubmission keys records by the raw value of their submission
// reference. Records with no submission reference are dropped; when two
// records point at the same submission the later one wins.
func indexBySubmission(records []Record) map[string]Record {
	out := make(map[string]Record, len(records))
	for _, r := range records {
		sysId := r["submission"].Value()
		if sysId == "" {
			continue
		}
		out[sysId] = r
	}
	return out
}
