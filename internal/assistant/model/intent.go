package model

// Intent is the label produced by the intent classifier for a message that
// is not already part of an active collection flow.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentInformational  Intent = "informational"
	IntentCutoff         Intent = "cutoff"
	IntentEligibility    Intent = "eligibility"
	IntentMixed          Intent = "mixed"
	IntentOutOfScope     Intent = "out_of_scope"
	IntentContactRequest Intent = "contact_request"
)

func (i Intent) String() string {
	return string(i)
}
