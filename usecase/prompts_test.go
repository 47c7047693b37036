package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyshev/ml-research-14team/domain"
)

func TestRenderHistoryEmptyUsesSentinel(t *testing.T) {
	names := map[domain.RoleKind]string{
		domain.ScammerRole: "Скамер",
		domain.VictimRole:  "Жертва",
	}
	assert.Equal(t, emptyHistoryLine, renderHistory(nil, names))
}

func TestRenderHistoryTagsByStoredRole(t *testing.T) {
	names := map[domain.RoleKind]string{
		domain.ScammerRole: "Скамер",
		domain.VictimRole:  "Жертва",
	}
	messages := []domain.Utterance{
		{Role: domain.ScammerRole, Speaker: "Скамер", Text: "Скамер: добрый день"},
		{Role: domain.VictimRole, Speaker: "Жертва", Text: "Жертва: кто это?"},
	}

	history := renderHistory(messages, names)
	lines := strings.Split(history, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Скамер: добрый день", lines[0])
	assert.Equal(t, "Жертва: кто это?", lines[1])
}

func TestEnsurePrefixIsIdempotent(t *testing.T) {
	once := ensurePrefix("Скамер", "привет")
	assert.Equal(t, "Скамер: привет", once)
	assert.Equal(t, once, ensurePrefix("Скамер", once))
}

func TestSpeakerPromptSubstitutesPersonaPlaceholders(t *testing.T) {
	st := &domain.DialogState{
		FraudScheme:  "вложение под 100% годовых",
		FraudSuccess: "перевод денег",
	}
	self := domain.Persona{
		Name:     "Скамер",
		Bio:      "мошенник",
		Template: "Ты говоришь с {bio2}, {name2}. Используй схему {fraud_scheme}.",
	}
	opponent := domain.Persona{Name: "Жертва", Bio: "пенсионер"}

	prompt := speakerPrompt(st, self, opponent, "история")

	assert.Contains(t, prompt.System, "Ты - мошенник.")
	assert.Contains(t, prompt.System, "Тебя зовут Скамер.")
	assert.Contains(t, prompt.System, "Ты говоришь с пенсионер, Жертва.")
	assert.Contains(t, prompt.System, "Используй схему вложение под 100% годовых.")
	assert.NotContains(t, prompt.System, "{")
	assert.Equal(t, "история", prompt.User)
}

func TestAnalystPromptCarriesHistoryAndSuccessCondition(t *testing.T) {
	st := &domain.DialogState{FraudSuccess: "жертва перевела деньги"}
	analyst := domain.Persona{
		Name:     "Аналитик",
		Bio:      "эксперт",
		Template: "Условие успеха: {success_conditions}.",
	}

	prompt := analystPrompt(st, analyst, "Скамер: дай денег\nЖертва: нет")

	assert.Empty(t, prompt.System)
	assert.Contains(t, prompt.User, "Условие успеха: жертва перевела деньги.")
	assert.Contains(t, prompt.User, "Переписка:\nСкамер: дай денег\nЖертва: нет")
}
