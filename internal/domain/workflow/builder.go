package workflow

import "fmt"

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) (StateMachine, error)
}

// StateConfiguration configures transitions out of one state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration
}

type permit struct {
	trigger Trigger
	toState State
}

type stateConfig struct {
	permits []permit
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.permits = append(c.permits, permit{trigger: trigger, toState: toState})
	return c
}

func (c *stateConfig) lookup(trigger Trigger) (State, bool) {
	for _, p := range c.permits {
		if p.trigger == trigger {
			return p.toState, true
		}
	}
	return "", false
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

type stateMachine struct {
	current        State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{configurations: make(map[State]*stateConfig)}
}

// Configure panics on unknown states; configuration is static program text.
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	cfg, ok := b.configurations[state]
	if !ok {
		cfg = &stateConfig{}
		b.configurations[state] = cfg
	}
	return cfg
}

// Build copies the configuration so later Configure calls do not leak into built machines
func (b *stateMachineBuilder) Build(initialState State) (StateMachine, error) {
	if !initialState.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, initialState)
	}

	configs := make(map[State]*stateConfig, len(b.configurations))
	for state, cfg := range b.configurations {
		configs[state] = &stateConfig{permits: append([]permit(nil), cfg.permits...)}
	}

	return &stateMachine{current: initialState, configurations: configs}, nil
}

func (m *stateMachine) State() State {
	return m.current
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	cfg, ok := m.configurations[m.current]
	if !ok {
		return false
	}
	_, ok = cfg.lookup(trigger)
	return ok
}

func (m *stateMachine) Fire(trigger Trigger) error {
	cfg, ok := m.configurations[m.current]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from state %s", ErrInvalidTransition, trigger, m.current)
	}
	next, ok := cfg.lookup(trigger)
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from state %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	cfg, ok := m.configurations[m.current]
	if !ok {
		return []Trigger{}
	}
	triggers := make([]Trigger, 0, len(cfg.permits))
	for _, p := range cfg.permits {
		triggers = append(triggers, p.trigger)
	}
	return triggers
}
