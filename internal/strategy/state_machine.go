package strategy

import "sync"

// StateMachine tracks the spread-grid regime for one holding cycle.
type StateMachine struct {
	mu    sync.Mutex
	State State
}

func NewStateMachine() *StateMachine {
	return &StateMachine{State: StateEntering}
}

func (s *StateMachine) Apply(event Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = nextState(s.State, event)
	return s.State
}

func (s *StateMachine) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

func (s *StateMachine) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
}

func nextState(current State, event Event) State {
	switch current {
	case StateEntering:
		if event == EventBaselineSet {
			return StateExiting
		}
	case StateExiting:
		if event == EventFlat {
			return StateEntering
		}
	}
	return current
}
