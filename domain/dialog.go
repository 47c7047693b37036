package domain

// RoleKind tags who authored a stored utterance.
type RoleKind string

const (
	ScammerRole RoleKind = "scammer"
	VictimRole  RoleKind = "victim"
	AnalystRole RoleKind = "analyst"
)

// Utterance is one produced turn: the speaker's role, the display name it
// was attributed to, and the normalized "<name>: ..." text.
type Utterance struct {
	Role    RoleKind `json:"role"`
	Speaker string   `json:"speaker"`
	Text    string   `json:"text"`
}

// DialogState is the single mutable record threaded through one simulation
// run. Messages is append-only; MessageCount counts scammer and victim turns
// only.
type DialogState struct {
	FraudScheme  string
	FraudSuccess string
	Messages     []Utterance
	MessageCount int
	MaxCount     int
	IsScammed    bool
	Analysis     string
}

// TurnFragment is what a scammer or victim node returns: the new utterance
// and the incremented counter. Merging it into the state is the
// orchestrator's job.
type TurnFragment struct {
	Utterance    Utterance `json:"utterance"`
	MessageCount int       `json:"message_count"`
}

// VerdictFragment is what the analyst node returns. It never carries a
// counter: analyst turns do not count as messages.
type VerdictFragment struct {
	Analysis  string `json:"analysis"`
	IsScammed bool   `json:"is_scammed"`
}

// ApplyTurn merges a turn fragment into the state.
func (s *DialogState) ApplyTurn(f TurnFragment) {
	s.Messages = append(s.Messages, f.Utterance)
	s.MessageCount = f.MessageCount
}

// ApplyVerdict merges an analyst fragment into the state, overwriting the
// previous verdict.
func (s *DialogState) ApplyVerdict(f VerdictFragment) {
	s.Analysis = f.Analysis
	s.IsScammed = f.IsScammed
}
