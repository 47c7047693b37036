package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/utils/log"
)

// Hard ceiling on node visits per run, independent of MaxCount. Exceeding
// it means the stopping policy or a persona template is defective.
const defaultStepBudget = 100

// Literal the analyst must return, verbatim after trimming, for the victim
// to count as defrauded.
const scammedVerdict = "scammed"

// RunParams are the caller-supplied inputs of one simulation run.
type RunParams struct {
	CaseKey     string `json:"case"`
	VictimIndex int    `json:"victim"`
	FraudScheme string `json:"fraud_scheme"`
	MaxCount    int    `json:"max_count"`
	WithAnalyst bool   `json:"with_analyst"`
}

// Simulator drives scammer/victim/analyst turns against one LLM handle.
// Each run owns its own dialog state, so independent runs may proceed in
// parallel.
type Simulator struct {
	llm        domain.Llm
	registry   *Registry
	stepBudget int
}

func NewSimulator(llm domain.Llm, registry *Registry) *Simulator {
	return &Simulator{
		llm:        llm,
		registry:   registry,
		stepBudget: defaultStepBudget,
	}
}

// participant pairs a persona with the role tag its utterances are stored
// under.
type participant struct {
	role    domain.RoleKind
	persona domain.Persona
}

// Start validates the parameters against the registry and launches the run.
// The returned channel yields one update per completed node visit, in step
// order, and is closed when the run ends; a failed run delivers its error
// in the final update. Selection problems surface here, before any model
// call is made.
func (s *Simulator) Start(ctx context.Context, params RunParams) (<-chan domain.Update, error) {
	fraudCase, err := s.registry.Case(params.CaseKey)
	if err != nil {
		return nil, err
	}
	victimPersona, err := s.registry.Victim(params.VictimIndex)
	if err != nil {
		return nil, err
	}
	if params.MaxCount <= 0 {
		return nil, fmt.Errorf("max_count must be positive, got %d", params.MaxCount)
	}

	st := &domain.DialogState{
		FraudScheme:  params.FraudScheme,
		FraudSuccess: fraudCase.SuccessCondition,
		MaxCount:     params.MaxCount,
	}
	if st.FraudScheme == "" {
		st.FraudScheme = fraudCase.Description
	}

	scammer := participant{role: domain.ScammerRole, persona: fraudCase.Profiles[domain.ScammerProfile]}
	victim := participant{role: domain.VictimRole, persona: victimPersona}
	var analyst *participant
	if params.WithAnalyst {
		p, ok := fraudCase.Profiles[domain.AnalystProfile]
		if !ok {
			return nil, &domain.SelectionError{Kind: "profile", Key: params.CaseKey + "/" + domain.AnalystProfile}
		}
		analyst = &participant{role: domain.AnalystRole, persona: p}
	}

	updates := make(chan domain.Update)
	go func() {
		defer close(updates)
		s.run(ctx, st, scammer, victim, analyst, updates)
	}()
	return updates, nil
}

// run walks the dialogue graph: scammer -> victim -> [analyst] -> decision,
// looping back to the scammer until the stopping policy or the step budget
// ends the run.
func (s *Simulator) run(
	ctx context.Context,
	st *domain.DialogState,
	scammer, victim participant,
	analyst *participant,
	updates chan<- domain.Update,
) {
	steps := 0
	node := domain.NodeScammer
	for {
		steps++
		if steps > s.stepBudget {
			updates <- domain.Update{Err: &domain.RunawayError{Steps: s.stepBudget}}
			return
		}

		switch node {
		case domain.NodeScammer:
			frag, err := s.speak(ctx, st, scammer, victim)
			if err != nil {
				updates <- domain.Update{Node: node, Err: fmt.Errorf("scammer turn: %w", err)}
				return
			}
			st.ApplyTurn(frag)
			updates <- domain.Update{Node: node, Turn: &frag}
			node = domain.NodeVictim

		case domain.NodeVictim:
			frag, err := s.speak(ctx, st, victim, scammer)
			if err != nil {
				updates <- domain.Update{Node: node, Err: fmt.Errorf("victim turn: %w", err)}
				return
			}
			st.ApplyTurn(frag)
			updates <- domain.Update{Node: node, Turn: &frag}
			if analyst != nil {
				node = domain.NodeAnalyst
				continue
			}
			if stop(st) {
				log.WithCtx(ctx).Info("run terminated",
					zap.Int("message_count", st.MessageCount),
					zap.Int("steps", steps))
				return
			}
			node = domain.NodeScammer

		case domain.NodeAnalyst:
			verdict, err := s.judge(ctx, st, *analyst, scammer, victim)
			if err != nil {
				updates <- domain.Update{Node: node, Err: fmt.Errorf("analyst turn: %w", err)}
				return
			}
			st.ApplyVerdict(verdict)
			updates <- domain.Update{Node: node, Verdict: &verdict}
			if stop(st) {
				log.WithCtx(ctx).Info("run terminated",
					zap.Int("message_count", st.MessageCount),
					zap.Bool("is_scammed", st.IsScammed),
					zap.Int("steps", steps))
				return
			}
			node = domain.NodeScammer
		}
	}
}

// stop is the stopping policy: the run ends once the message ceiling is
// reached or the analyst has declared the victim defrauded.
func stop(st *domain.DialogState) bool {
	if st.MessageCount >= st.MaxCount {
		return true
	}
	return st.IsScammed
}

// speak produces one scammer or victim utterance and the incremented
// counter. It never touches the shared state itself.
func (s *Simulator) speak(ctx context.Context, st *domain.DialogState, self, opponent participant) (domain.TurnFragment, error) {
	names := map[domain.RoleKind]string{
		self.role:     self.persona.Name,
		opponent.role: opponent.persona.Name,
	}
	history := renderHistory(st.Messages, names)
	prompt := speakerPrompt(st, self.persona, opponent.persona, history)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return domain.TurnFragment{}, err
	}

	log.WithCtx(ctx).Debug("turn produced",
		zap.String("speaker", self.persona.Name),
		zap.Int("message_count", st.MessageCount+1))

	return domain.TurnFragment{
		Utterance: domain.Utterance{
			Role:    self.role,
			Speaker: self.persona.Name,
			Text:    ensurePrefix(self.persona.Name, reply),
		},
		MessageCount: st.MessageCount + 1,
	}, nil
}

// judge produces the analyst's verdict over the whole correspondence. The
// victim counts as defrauded only on the exact literal "scammed"; anything
// else is kept verbatim as the rationale.
func (s *Simulator) judge(ctx context.Context, st *domain.DialogState, analyst, scammer, victim participant) (domain.VerdictFragment, error) {
	names := map[domain.RoleKind]string{
		scammer.role: scammer.persona.Name,
		victim.role:  victim.persona.Name,
	}
	history := renderHistory(st.Messages, names)
	prompt := analystPrompt(st, analyst.persona, history)

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return domain.VerdictFragment{}, err
	}

	verdict := strings.TrimSpace(raw)

	log.WithCtx(ctx).Debug("verdict produced",
		zap.Bool("is_scammed", verdict == scammedVerdict))

	return domain.VerdictFragment{
		Analysis:  verdict,
		IsScammed: verdict == scammedVerdict,
	}, nil
}
