package policy

// #region imports
import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"sprintpilot/internal/store"
)

// #endregion

// #region config

// AgentConfig holds the Q-learning hyperparameters.
type AgentConfig struct {
	Epsilon      float64 `json:"epsilon"`       // exploration probability
	Alpha        float64 `json:"alpha"`         // learning rate
	Gamma        float64 `json:"gamma"`         // discount factor
	StateBuckets int     `json:"state_buckets"` // buckets per state dimension
}

// DefaultAgentConfig mirrors the engine's stock hyperparameters.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{Epsilon: 0.1, Alpha: 0.1, Gamma: 0.9, StateBuckets: 10}
}

// #endregion

// #region agent

// Agent is an epsilon-greedy tabular Q-learning policy over
// (state, action). The table is the only state it mutates.
type Agent struct {
	cfg   AgentConfig
	space StateSpace
	table [][]float64
	rng   *rand.Rand
}

// NewAgent allocates a zeroed Q-table sized to the state space and
// action catalog.
func NewAgent(cfg AgentConfig, space StateSpace, rng *rand.Rand) *Agent {
	table := make([][]float64, space.NumStates())
	for i := range table {
		table[i] = make([]float64, len(Actions))
	}
	return &Agent{cfg: cfg, space: space, table: table, rng: rng}
}

// Space returns the agent's state space.
func (a *Agent) Space() StateSpace { return a.space }

// Q returns the current estimate for (state, action).
func (a *Agent) Q(state int, action Action) float64 {
	return a.table[state][IndexOf(action)]
}

// #endregion

// #region select-action

// SelectAction is epsilon-greedy: explore with probability epsilon,
// otherwise exploit the argmax of the state's row. Ties break toward
// the lowest action index so exploitation is reproducible.
func (a *Agent) SelectAction(state int) Action {
	if a.rng.Float64() < a.cfg.Epsilon {
		return SampleAction(a.rng)
	}
	best := 0
	for i, q := range a.table[state] {
		if q > a.table[state][best] {
			best = i
		}
	}
	return Actions[best]
}

// #endregion

// #region update

// Update applies one Q-learning step:
//
//	Q[s,a] += alpha * (r + gamma*max(Q[s']) - Q[s,a])
//
// Exactly one update per (s, a, r, s') tuple; no traces, no batching.
func (a *Agent) Update(state int, action Action, reward float64, nextState int) {
	idx := IndexOf(action)
	if idx < 0 {
		return
	}
	current := a.table[state][idx]
	maxNext := a.table[nextState][0]
	for _, q := range a.table[nextState][1:] {
		if q > maxNext {
			maxNext = q
		}
	}
	a.table[state][idx] = current + a.cfg.Alpha*(reward+a.cfg.Gamma*maxNext-current)
}

// #endregion

// #region policy

// Policy returns softmax probabilities over the state's row. For
// diagnostics only; action selection always goes through SelectAction.
func (a *Agent) Policy(state int) map[Action]float64 {
	row := a.table[state]
	maxQ := row[0]
	for _, q := range row[1:] {
		if q > maxQ {
			maxQ = q
		}
	}

	exp := make([]float64, len(row))
	var sum float64
	for i, q := range row {
		exp[i] = math.Exp(q - maxQ)
		sum += exp[i]
	}

	out := make(map[Action]float64, len(Actions))
	for i, act := range Actions {
		out[act] = exp[i] / sum
	}
	return out
}

// #endregion

// #region persistence

// qTableSchemaVersion guards against loading snapshots whose layout
// no longer matches the configured state/action space.
const qTableSchemaVersion = 1

// ErrDimensionMismatch is returned when a persisted Q-table does not
// match the currently configured state/action space.
var ErrDimensionMismatch = errors.New("q-table dimensions do not match configuration")

type tableFile struct {
	SchemaVersion int             `json:"schema_version"`
	QTable        [][]float64     `json:"q_table"`
	Config        AgentConfig     `json:"config"`
	StateSpace    stateSpaceFile  `json:"state_space"`
	ActionSpace   actionSpaceFile `json:"action_space"`
}

type stateSpaceFile struct {
	StateBuckets int `json:"state_buckets"`
}

type actionSpaceFile struct {
	Actions []string `json:"actions"`
}

// Save writes the full table plus its declared dimensions to path,
// overwriting the previous snapshot in full.
func (a *Agent) Save(path string) error {
	names := make([]string, len(Actions))
	for i, act := range Actions {
		names[i] = string(act)
	}
	return store.WriteJSON(path, tableFile{
		SchemaVersion: qTableSchemaVersion,
		QTable:        a.table,
		Config:        a.cfg,
		StateSpace:    stateSpaceFile{StateBuckets: a.cfg.StateBuckets},
		ActionSpace:   actionSpaceFile{Actions: names},
	})
}

// Load restores a persisted table. A snapshot whose dimensions
// disagree with the configured state/action space is rejected with
// ErrDimensionMismatch rather than silently truncated or padded.
func (a *Agent) Load(path string) error {
	var f tableFile
	if err := store.ReadJSON(path, &f); err != nil {
		return err
	}
	if f.SchemaVersion > qTableSchemaVersion {
		return fmt.Errorf("q-table schema version %d is newer than supported %d", f.SchemaVersion, qTableSchemaVersion)
	}
	if len(f.QTable) != a.space.NumStates() {
		return fmt.Errorf("%w: persisted %d states, configured %d",
			ErrDimensionMismatch, len(f.QTable), a.space.NumStates())
	}
	for i, row := range f.QTable {
		if len(row) != len(Actions) {
			return fmt.Errorf("%w: state %d has %d actions, catalog has %d",
				ErrDimensionMismatch, i, len(row), len(Actions))
		}
	}
	if n := len(f.ActionSpace.Actions); n != 0 && n != len(Actions) {
		return fmt.Errorf("%w: persisted %d catalog actions, configured %d",
			ErrDimensionMismatch, n, len(Actions))
	}
	a.table = f.QTable
	return nil
}

// #endregion
