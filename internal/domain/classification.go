package domain

// ClassificationResult is the structured output of the intent classifier for
// one transcript. It is consumed at intake and never stored verbatim beyond
// the fields copied into a Task.
type ClassificationResult struct {
	Intent        string  `json:"intent"`
	Issue         string  `json:"issue"`
	Urgency       Urgency `json:"urgency"`
	Location      string  `json:"location,omitempty"`
	PreferredTime string  `json:"preferred_time,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// IntentOther is the catch-all category for requests the classifier could
// not place into a supported service type.
const IntentOther = "Other"

// SupportedIntents is the closed catalogue of service categories.
var SupportedIntents = []string{
	"AC Repair",
	"Plumbing",
	"Electrical",
	"General Maintenance",
	"Clinic Appointment",
	"Property Inspection",
	"Pest Control",
	"Painting",
	"Carpentry",
	IntentOther,
}

// SupportedIntent reports whether intent is in the catalogue.
func SupportedIntent(intent string) bool {
	for _, s := range SupportedIntents {
		if s == intent {
			return true
		}
	}
	return false
}
