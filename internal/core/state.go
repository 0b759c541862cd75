package core

// Phase is a named stage within a mode's lifecycle.
type Phase string

const (
	PhaseResponding   Phase = "responding"
	PhaseRevising     Phase = "revising"
	PhaseDebating     Phase = "debating"
	PhaseDiscussing   Phase = "discussing"
	PhaseAssigning    Phase = "assigning"
	PhaseVoting       Phase = "voting"
	PhaseJudging      Phase = "judging"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseSummarizing  Phase = "summarizing"
	PhaseRouting      Phase = "routing"
	PhaseAnswering    Phase = "answering"
	PhaseDecomposing  Phase = "decomposing"
	PhaseExecuting    Phase = "executing"
	PhaseDrafting     Phase = "drafting"
	PhaseCritiquing   Phase = "critiquing"
	PhaseExplaining   Phase = "explaining"
	PhaseDone         Phase = "done"
)

// ModeState is the tagged union over all per-mode state records. Exactly one
// struct exists per mode; the runner is generic over the union and never
// depends on a single mode's shape.
type ModeState interface {
	Mode() Mode
	CurrentPhase() Phase
	AllTurns() []Turn
}

// ParallelState tracks the independent-answers fallback strategy.
type ParallelState struct {
	Phase Phase  `json:"phase"`
	Turns []Turn `json:"turns"`
}

func (s *ParallelState) Mode() Mode          { return ModeParallel }
func (s *ParallelState) CurrentPhase() Phase { return s.Phase }
func (s *ParallelState) AllTurns() []Turn    { return s.Turns }

// SynthesizedState tracks the gather-then-synthesize strategy.
type SynthesizedState struct {
	Phase         Phase  `json:"phase"`
	SynthesizerID string `json:"synthesizer_id"`
	Turns         []Turn `json:"turns"`
	Synthesis     string `json:"synthesis,omitempty"`
}

func (s *SynthesizedState) Mode() Mode          { return ModeSynthesized }
func (s *SynthesizedState) CurrentPhase() Phase { return s.Phase }
func (s *SynthesizedState) AllTurns() []Turn    { return s.Turns }

// ConfidenceState tracks confidence-weighted synthesis.
type ConfidenceState struct {
	Phase         Phase          `json:"phase"`
	SynthesizerID string         `json:"synthesizer_id"`
	Turns         []Turn         `json:"turns"`
	Confidences   map[string]int `json:"confidences"` // instance id -> 0..100
	Synthesis     string         `json:"synthesis,omitempty"`
}

func (s *ConfidenceState) Mode() Mode          { return ModeConfidence }
func (s *ConfidenceState) CurrentPhase() Phase { return s.Phase }
func (s *ConfidenceState) AllTurns() []Turn    { return s.Turns }

// RoutedState tracks the routing decision and the routed answer.
// IsFallback and SelectedID are always set together.
type RoutedState struct {
	Phase         Phase  `json:"phase"`
	RouterID      string `json:"router_id"`
	SelectedID    string `json:"selected_id,omitempty"`
	SelectedModel string `json:"selected_model,omitempty"`
	IsFallback    bool   `json:"is_fallback"`
	Reasoning     string `json:"reasoning,omitempty"`
	Turns         []Turn `json:"turns"`
}

func (s *RoutedState) Mode() Mode          { return ModeRouted }
func (s *RoutedState) CurrentPhase() Phase { return s.Phase }
func (s *RoutedState) AllTurns() []Turn    { return s.Turns }

// ElectedState tracks parallel answers followed by a vote.
type ElectedState struct {
	Phase    Phase             `json:"phase"`
	Turns    []Turn            `json:"turns"`
	Votes    map[string]string `json:"votes"` // voter id -> candidate id
	Tally    map[string]int    `json:"tally"` // candidate id -> vote count
	WinnerID string            `json:"winner_id,omitempty"`
}

func (s *ElectedState) Mode() Mode          { return ModeElected }
func (s *ElectedState) CurrentPhase() Phase { return s.Phase }
func (s *ElectedState) AllTurns() []Turn    { return s.Turns }

// ConsensusState tracks iterative revision toward agreement.
type ConsensusState struct {
	Phase            Phase     `json:"phase"`
	Round            int       `json:"round"`
	MaxRounds        int       `json:"max_rounds"`
	Threshold        float64   `json:"threshold"`
	Turns            []Turn    `json:"turns"`
	Scores           []float64 `json:"scores"` // one per revision round
	ConsensusReached bool      `json:"consensus_reached"`
	RepresentativeID string    `json:"representative_id,omitempty"`
}

func (s *ConsensusState) Mode() Mode          { return ModeConsensus }
func (s *ConsensusState) CurrentPhase() Phase { return s.Phase }
func (s *ConsensusState) AllTurns() []Turn    { return s.Turns }

// DebateState tracks the pro/con debate strategy.
type DebateState struct {
	Phase        Phase             `json:"phase"`
	Round        int               `json:"round"`
	SummarizerID string            `json:"summarizer_id"`
	Positions    map[string]string `json:"positions"` // instance id -> "pro"/"con"
	Turns        []Turn            `json:"turns"`
	Summary      string            `json:"summary,omitempty"`
	IsSynthesis  bool              `json:"is_synthesis"`
}

func (s *DebateState) Mode() Mode          { return ModeDebated }
func (s *DebateState) CurrentPhase() Phase { return s.Phase }
func (s *DebateState) AllTurns() []Turn    { return s.Turns }

// CouncilState tracks the role-based council discussion.
type CouncilState struct {
	Phase         Phase             `json:"phase"`
	Round         int               `json:"round"`
	SynthesizerID string            `json:"synthesizer_id"`
	Roles         map[string]string `json:"roles"` // instance id -> role name
	Turns         []Turn            `json:"turns"`
	Synthesis     string            `json:"synthesis,omitempty"`
	IsSynthesis   bool              `json:"is_synthesis"`
}

func (s *CouncilState) Mode() Mode          { return ModeCouncil }
func (s *CouncilState) CurrentPhase() Phase { return s.Phase }
func (s *CouncilState) AllTurns() []Turn    { return s.Turns }

// CritiqueState tracks draft, critique and revision.
type CritiqueState struct {
	Phase     Phase  `json:"phase"`
	DrafterID string `json:"drafter_id"`
	Turns     []Turn `json:"turns"`
	Final     string `json:"final,omitempty"`
}

func (s *CritiqueState) Mode() Mode          { return ModeCritiqued }
func (s *CritiqueState) CurrentPhase() Phase { return s.Phase }
func (s *CritiqueState) AllTurns() []Turn    { return s.Turns }

// HierarchicalState tracks coordinator decomposition and worker execution.
type HierarchicalState struct {
	Phase         Phase     `json:"phase"`
	CoordinatorID string    `json:"coordinator_id"`
	Subtasks      []Subtask `json:"subtasks"`
	Turns         []Turn    `json:"turns"`
	Synthesis     string    `json:"synthesis,omitempty"`
}

func (s *HierarchicalState) Mode() Mode          { return ModeHierarchical }
func (s *HierarchicalState) CurrentPhase() Phase { return s.Phase }
func (s *HierarchicalState) AllTurns() []Turn    { return s.Turns }

// TournamentState tracks the single-elimination competition.
// Bracket[0] is the full initial competitor set; Bracket[r+1] holds the
// round-r winners. Eliminated is keyed by the round the loss happened in.
type TournamentState struct {
	Phase      Phase            `json:"phase"`
	Round      int              `json:"round"`
	Bracket    [][]string       `json:"bracket"`
	Eliminated map[int][]string `json:"eliminated"`
	Matches    []Match          `json:"matches"`
	Turns      []Turn           `json:"turns"` // initial candidate responses
	WinnerID   string           `json:"winner_id,omitempty"`
}

func (s *TournamentState) Mode() Mode          { return ModeTournament }
func (s *TournamentState) CurrentPhase() Phase { return s.Phase }
func (s *TournamentState) AllTurns() []Turn    { return s.Turns }

// ExplainerState tracks multi-audience explanation.
type ExplainerState struct {
	Phase     Phase             `json:"phase"`
	Audiences map[string]string `json:"audiences"` // instance id -> audience
	Turns     []Turn            `json:"turns"`
}

func (s *ExplainerState) Mode() Mode          { return ModeExplainer }
func (s *ExplainerState) CurrentPhase() Phase { return s.Phase }
func (s *ExplainerState) AllTurns() []Turn    { return s.Turns }
