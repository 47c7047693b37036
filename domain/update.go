package domain

import "time"

// NodeKind identifies which graph node produced an update.
type NodeKind string

const (
	NodeScammer NodeKind = "scammer"
	NodeVictim  NodeKind = "victim"
	NodeAnalyst NodeKind = "analyst"
)

// Update is one discrete per-step event of a simulation run, emitted in
// step order. Exactly one of Turn and Verdict is set for a successful step;
// Err is set on the final update of a failed run.
type Update struct {
	Node    NodeKind
	Turn    *TurnFragment
	Verdict *VerdictFragment
	Err     error
}

// Update message types as seen on the wire.
const (
	UpdateScammerTurn    = "scammer_turn"
	UpdateVictimTurn     = "victim_turn"
	UpdateAnalystVerdict = "analyst_verdict"
	UpdateRunFinished    = "run_finished"
	UpdateRunFailed      = "run_failed"
)

// UpdateMessage is the broker/websocket payload for one simulation step.
type UpdateMessage struct {
	RunID        string    `json:"run_id"`
	Type         string    `json:"type"`
	Speaker      string    `json:"speaker,omitempty"`
	Text         string    `json:"text,omitempty"`
	MessageCount int       `json:"message_count,omitempty"`
	IsScammed    bool      `json:"is_scammed,omitempty"`
	Analysis     string    `json:"analysis,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ToMessage converts an in-process update into its wire form.
func (u Update) ToMessage(runID string) UpdateMessage {
	msg := UpdateMessage{
		RunID:     runID,
		Timestamp: time.Now(),
	}
	switch {
	case u.Err != nil:
		msg.Type = UpdateRunFailed
		msg.Error = u.Err.Error()
	case u.Verdict != nil:
		msg.Type = UpdateAnalystVerdict
		msg.IsScammed = u.Verdict.IsScammed
		msg.Analysis = u.Verdict.Analysis
	case u.Turn != nil:
		if u.Node == NodeVictim {
			msg.Type = UpdateVictimTurn
		} else {
			msg.Type = UpdateScammerTurn
		}
		msg.Speaker = u.Turn.Utterance.Speaker
		msg.Text = u.Turn.Utterance.Text
		msg.MessageCount = u.Turn.MessageCount
	}
	return msg
}
