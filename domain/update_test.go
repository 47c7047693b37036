package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateToMessage(t *testing.T) {
	turn := Update{
		Node: NodeScammer,
		Turn: &TurnFragment{
			Utterance:    Utterance{Role: ScammerRole, Speaker: "Скамер", Text: "Скамер: привет"},
			MessageCount: 1,
		},
	}
	msg := turn.ToMessage("run-1")
	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, UpdateScammerTurn, msg.Type)
	assert.Equal(t, "Скамер", msg.Speaker)
	assert.Equal(t, "Скамер: привет", msg.Text)
	assert.Equal(t, 1, msg.MessageCount)

	turn.Node = NodeVictim
	assert.Equal(t, UpdateVictimTurn, turn.ToMessage("run-1").Type)

	verdict := Update{
		Node:    NodeAnalyst,
		Verdict: &VerdictFragment{Analysis: "scammed", IsScammed: true},
	}
	msg = verdict.ToMessage("run-1")
	assert.Equal(t, UpdateAnalystVerdict, msg.Type)
	assert.True(t, msg.IsScammed)
	assert.Equal(t, "scammed", msg.Analysis)

	failed := Update{Err: errors.New("boom")}
	msg = failed.ToMessage("run-1")
	assert.Equal(t, UpdateRunFailed, msg.Type)
	assert.Equal(t, "boom", msg.Error)
}

func TestDialogStateApply(t *testing.T) {
	st := &DialogState{MaxCount: 5}

	st.ApplyTurn(TurnFragment{
		Utterance:    Utterance{Role: ScammerRole, Speaker: "Скамер", Text: "Скамер: привет"},
		MessageCount: 1,
	})
	st.ApplyTurn(TurnFragment{
		Utterance:    Utterance{Role: VictimRole, Speaker: "Жертва", Text: "Жертва: кто это?"},
		MessageCount: 2,
	})

	assert.Len(t, st.Messages, 2)
	assert.Equal(t, 2, st.MessageCount)
	assert.Equal(t, ScammerRole, st.Messages[0].Role)

	st.ApplyVerdict(VerdictFragment{Analysis: "не уверен"})
	assert.Equal(t, "не уверен", st.Analysis)
	assert.False(t, st.IsScammed)
	// Verdicts never touch the counter
	assert.Equal(t, 2, st.MessageCount)

	st.ApplyVerdict(VerdictFragment{Analysis: "scammed", IsScammed: true})
	assert.Equal(t, "scammed", st.Analysis)
	assert.True(t, st.IsScammed)
}
