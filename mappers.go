package servicenow

// SubmissionView is the flat, UI-ready shape of one submission row with the
// matching referral and AI recommendation merged on. Every field degrades
// to its zero value when the source record is missing or malformed; the
// backing system does not guarantee any field is populated.
type SubmissionView struct {
	SysID           string       `json:"sysId"`
	Number          string       `json:"id"`
	ApplicantName   string       `json:"applicantName"`
	Status          string       `json:"status"`
	LineOfBusiness  string       `json:"lineOfBusiness"`
	PrimaryState    string       `json:"primaryState"`
	SubmittedDate   string       `json:"submittedDate"`
	ReceivedDate    string       `json:"receivedDate"`
	EffectiveDate   string       `json:"effectiveDate"`
	Premium         float64      `json:"premium"`
	DaysInQueue     int          `json:"daysInQueue"`
	Routing         RoutingView  `json:"routing"`
	Referral        ReferralView `json:"referral"`
	AISuggestedRate float64      `json:"aiSuggestedRate"`
	AIConfidence    float64      `json:"aiConfidence"`
}

// RoutingView is the AI routing decision shown on each dashboard row.
type RoutingView struct {
	Decision          string `json:"decision"`
	Reason            string `json:"reason"`
	FastTrackEligible bool   `json:"fastTrackEligible"`
}

// ReferralView is the referral status shown on each dashboard row.
type ReferralView struct {
	Required   bool   `json:"required"`
	Reason     string `json:"reason"`
	ReferredTo string `json:"referredTo"`
	Status     string `json:"status"`
}

// MapSubmission flattens a raw submission record and joins the referral and
// AI recommendation for it out of the dashboard lookup maps. Lookup misses
// leave the nested views at their zero values.
func MapSubmission(raw Record, lookups *DashboardLookups) SubmissionView {
	view := SubmissionView{
		SysID:          raw.SysID(),
		Number:         raw["number"].Display(),
		ApplicantName:  raw["applicant_name"].Display(),
		Status:         raw["status"].Display(),
		LineOfBusiness: raw["line_of_business"].Display(),
		PrimaryState:   raw["primary_state"].Display(),
		SubmittedDate:  raw["submitted_date"].Date(),
		ReceivedDate:   raw["received_date"].Date(),
		EffectiveDate:  raw["effective_date"].Date(),
		Premium:        raw["premium"].Float(),
		DaysInQueue:    raw["days_in_queue"].Int(),
	}

	if lookups == nil {
		return view
	}

	if referral, ok := lookups.ReferralsBySubmission[view.SysID]; ok {
		view.Referral = ReferralView{
			Required:   referral["required"].Bool(),
			Reason:     referral["reason"].Display(),
			ReferredTo: referral["referred_to"].Display(),
			Status:     referral["status"].Display(),
		}
	}

	if rec, ok := lookups.AIBySubmission[view.SysID]; ok {
		view.Routing = RoutingView{
			Decision:          rec["decision"].Display(),
			Reason:            rec["reason"].Display(),
			FastTrackEligible: rec["fast_track_eligible"].Bool(),
		}
		view.AISuggestedRate = rec["suggested_rate"].Float()
		view.AIConfidence = rec["confidence"].Float()
	}

	return view
}

// MapSubmissions maps a whole list result for the dashboard.
func MapSubmissions(records []Record, lookups *DashboardLookups) []SubmissionView {
	views := make([]SubmissionView, 0, len(records))
	for _, r := range records {
		views = append(views, MapSubmission(r, lookups))
	}
	return views
}
