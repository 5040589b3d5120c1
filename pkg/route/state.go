package route

// State is the lifecycle state of a route instance.
type State string

// Lifecycle states. The zero State means the instance has not been entered.
const (
	StateEnter     State = "enter"
	StatePreModel  State = "preModel"
	StateModel     State = "model"
	StatePostModel State = "postModel"
	StateRender    State = "render"
	StateReady     State = "ready"
	StateResign    State = "resign"
	StatePause     State = "pause"
	StateResume    State = "resume"
	StateExit      State = "exit"
	StateShow      State = "show"
	StateHide      State = "hide"
	StateAbort     State = "abort"
	StateDestroy   State = "destroy"
)

// String returns the state name, "new" for the zero state.
func (s State) String() string {
	if s == "" {
		return "new"
	}
	return string(s)
}

// Entering reports whether s is one of the states an instance passes
// through before it becomes ready.
func (s State) Entering() bool {
	switch s {
	case StateEnter, StatePreModel, StateModel, StatePostModel, StateRender, StateResume, StateShow:
		return true
	}
	return false
}

// Resigned reports whether s is a state of an instance leaving the
// active chain that can still be restored.
func (s State) Resigned() bool {
	return s == StateResign || s == StateHide
}

// Terminal reports whether the instance can no longer be used.
func (s State) Terminal() bool {
	return s == StateExit || s == StateAbort || s == StateDestroy
}
