package usecase

import (
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/yanyshev/ml-research-14team/domain"
)

// System template shared by scammer and victim turns. The persona's own
// behavioral template is expanded into {template}.
const debatesTemplate = `Ты - {bio}.
Тебя зовут {name}.
{template}
Тебе будет дана уже состоявшаяся переписка. Изучи её и добавь очередную реплику. Реплика должна быть короткой, 2-3 предложения.
Не торопись раскрывать все мысли, у вас будет время.`

// The analyst gets the whole correspondence as a single user message.
const analystTemplate = `{template}

Переписка:
{history}`

// Sentinel shown instead of history on the very first turn.
const emptyHistoryLine = "Пока история пуста, ты начинаешь первым"

func render(template string, vars map[string]interface{}) string {
	return fasttemplate.ExecuteString(template, "{", "}", vars)
}

// ensurePrefix normalizes a reply so it carries exactly one display-name
// prefix, no matter whether the model added one itself.
func ensurePrefix(name, text string) string {
	if strings.HasPrefix(text, name) {
		return text
	}
	return name + ": " + text
}

// renderHistory lays the correspondence out as one speaker-tagged line per
// utterance, attributed by the stored role tag.
func renderHistory(messages []domain.Utterance, names map[domain.RoleKind]string) string {
	if len(messages) == 0 {
		return emptyHistoryLine
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, ensurePrefix(names[m.Role], m.Text))
	}
	return strings.Join(lines, "\n")
}

// speakerPrompt renders the full prompt for a scammer or victim turn. The
// persona template is expanded first so its own placeholders ({bio2},
// {fraud_scheme}, ...) get substituted too.
func speakerPrompt(st *domain.DialogState, self, opponent domain.Persona, history string) domain.Prompt {
	vars := map[string]interface{}{
		"bio":           self.Bio,
		"bio2":          opponent.Bio,
		"name":          self.Name,
		"name2":         opponent.Name,
		"fraud_scheme":  st.FraudScheme,
		"fraud_success": st.FraudSuccess,
	}
	vars["template"] = render(self.Template, vars)
	return domain.Prompt{
		System: render(debatesTemplate, vars),
		User:   history,
	}
}

// analystPrompt renders the analyst's verdict prompt.
func analystPrompt(st *domain.DialogState, analyst domain.Persona, history string) domain.Prompt {
	vars := map[string]interface{}{
		"bio":                analyst.Bio,
		"name":               analyst.Name,
		"success_conditions": st.FraudSuccess,
		"history":            history,
	}
	vars["template"] = render(analyst.Template, vars)
	return domain.Prompt{
		User: render(analystTemplate, vars),
	}
}
