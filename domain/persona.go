package domain

// Persona is a named role with a biography and the behavioral template used
// to render its prompt.
type Persona struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Template string `json:"-"`
}

// Profile keys a FraudCase must provide.
const (
	ScammerProfile = "scammer"
	AnalystProfile = "analyst"
)

// FraudCase is one selectable fraud scenario: what the scam is, what counts
// as success, and the personas that play it out.
type FraudCase struct {
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	SuccessCondition string             `json:"success_condition"`
	Profiles         map[string]Persona `json:"profiles"`
}
