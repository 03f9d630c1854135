package servicenow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldFromJSON(t *testing.T, raw string) Field {
	t.Helper()

	var f Field
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func TestFieldDisplay(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ABC-1", fieldFromJSON(t, `{"display_value":"ABC-1","value":"abc1"}`).Display())
	assert.Equal("plain", fieldFromJSON(t, `"plain"`).Display())
	assert.Equal("", fieldFromJSON(t, `null`).Display())
	assert.Equal("42", fieldFromJSON(t, `42`).Display())
	assert.Equal("3.14", fieldFromJSON(t, `3.14`).Display())
	assert.Equal("true", fieldFromJSON(t, `true`).Display())
}

func TestFieldValue(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("abc1", fieldFromJSON(t, `{"display_value":"ABC-1","value":"abc1"}`).Value())
	assert.Equal("plain", fieldFromJSON(t, `"plain"`).Value())
	assert.Equal("", fieldFromJSON(t, `null`).Value())
	assert.Equal("", fieldFromJSON(t, `{"display_value":"Orphan"}`).Value())
}

func TestFieldBool(t *testing.T) {
	assert := assert.New(t)

	assert.True(fieldFromJSON(t, `"true"`).Bool())
	assert.True(fieldFromJSON(t, `true`).Bool())
	assert.True(fieldFromJSON(t, `{"display_value":"true","value":"true"}`).Bool())
	assert.False(fieldFromJSON(t, `false`).Bool())
	assert.False(fieldFromJSON(t, `"false"`).Bool())
	assert.False(fieldFromJSON(t, `null`).Bool())
	assert.False(fieldFromJSON(t, `"yes"`).Bool())
}

func TestFieldDate(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("2026-01-01", fieldFromJSON(t, `"2026-01-01 10:00:00"`).Date())
	assert.Equal("2026-01-01", fieldFromJSON(t, `"2026-01-01"`).Date())
	assert.Equal("", fieldFromJSON(t, `null`).Date())
	assert.Equal("", fieldFromJSON(t, `""`).Date())
}

func TestFieldFloat(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(12500.0, fieldFromJSON(t, `{"display_value":"$12,500.00","value":"12500"}`).Float())
	assert.Equal(0.92, fieldFromJSON(t, `"0.92"`).Float())
	assert.Equal(0.0, fieldFromJSON(t, `null`).Float())
	assert.Equal(0.0, fieldFromJSON(t, `"n/a"`).Float())
}

func TestRecordMissingFieldIsEmpty(t *testing.T) {
	assert := assert.New(t)

	var record Record
	require.NoError(t, json.Unmarshal([]byte(`{"sys_id":"abc"}`), &record))

	assert.Equal("", record["does_not_exist"].Display())
	assert.False(record["does_not_exist"].Bool())
	assert.Equal("", record["does_not_exist"].Date())
}

func submissionRecord(t *testing.T) Record {
	t.Helper()

	var record Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"sys_id": {"display_value":"SUB0001","value":"sub1"},
		"number": "SUB0001",
		"applicant_name": {"display_value":"Acme Trucking LLC","value":"acme"},
		"status": "Pending Review",
		"line_of_business": "Commercial Auto",
		"primary_state": "SC",
		"submitted_date": "2026-08-01 09:30:00",
		"received_date": "2026-08-02 14:00:00",
		"effective_date": "2026-10-01 00:00:00",
		"premium": {"display_value":"$48,000.00","value":"48000"},
		"days_in_queue": "6"
	}`), &record))

	return record
}

func TestMapSubmission(t *testing.T) {
	assert := assert.New(t)

	lookups := &DashboardLookups{
		ReferralsBySubmission: map[string]Record{
			"sub1": {
				"required":    fieldFromJSON(t, `"true"`),
				"reason":      fieldFromJSON(t, `"Prior losses above threshold"`),
				"referred_to": fieldFromJSON(t, `{"display_value":"Senior UW Desk","value":"desk1"}`),
				"status":      fieldFromJSON(t, `"Open"`),
			},
		},
		AIBySubmission: map[string]Record{
			"sub1": {
				"decision":            fieldFromJSON(t, `"Standard Review"`),
				"reason":              fieldFromJSON(t, `"Loss history requires review"`),
				"fast_track_eligible": fieldFromJSON(t, `"false"`),
				"suggested_rate":      fieldFromJSON(t, `"1.18"`),
				"confidence":          fieldFromJSON(t, `"0.87"`),
			},
		},
	}

	view := MapSubmission(submissionRecord(t), lookups)

	assert.Equal("sub1", view.SysID)
	assert.Equal("SUB0001", view.Number)
	assert.Equal("Acme Trucking LLC", view.ApplicantName)
	assert.Equal("Pending Review", view.Status)
	assert.Equal("Commercial Auto", view.LineOfBusiness)
	assert.Equal("SC", view.PrimaryState)
	assert.Equal("2026-08-01", view.SubmittedDate)
	assert.Equal("2026-08-02", view.ReceivedDate)
	assert.Equal("2026-10-01", view.EffectiveDate)
	assert.Equal(48000.0, view.Premium)
	assert.Equal(6, view.DaysInQueue)

	assert.True(view.Referral.Required)
	assert.Equal("Prior losses above threshold", view.Referral.Reason)
	assert.Equal("Senior UW Desk", view.Referral.ReferredTo)

	assert.Equal("Standard Review", view.Routing.Decision)
	assert.False(view.Routing.FastTrackEligible)
	assert.Equal(1.18, view.AISuggestedRate)
	assert.Equal(0.87, view.AIConfidence)
}

func TestMapSubmissionLookupMiss(t *testing.T) {
	assert := assert.New(t)

	view := MapSubmission(submissionRecord(t), &DashboardLookups{
		ReferralsBySubmission: map[string]Record{},
		AIBySubmission:        map[string]Record{},
	})

	assert.False(view.Referral.Required)
	assert.Empty(view.Routing.Decision)
	assert.Zero(view.AISuggestedRate)
	assert.Zero(view.AIConfidence)
}

func TestMapSubmissionNilLookups(t *testing.T) {
	assert := assert.New(t)

	view := MapSubmission(submissionRecord(t), nil)
	assert.Equal("SUB0001", view.Number)
	assert.False(view.Routing.FastTrackEligible)
}

func TestMapSubmissionEmptyRecord(t *testing.T) {
	assert := assert.New(t)

	assert.NotPanics(func() {
		view := MapSubmission(Record{}, nil)
		assert.Empty(view.SysID)
		assert.Empty(view.ApplicantName)
	})
}

func TestMapSubmissions(t *testing.T) {
	assert := assert.New(t)

	views := MapSubmissions([]Record{submissionRecord(t), {}}, nil)
	assert.Len(views, 2)
	assert.Equal("SUB0001", views[0].Number)
	assert.Empty(views[1].Number)
}
