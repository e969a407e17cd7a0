package types

// Phase is the lifecycle phase of one enhancement invocation.
type Phase string

// Phase values. Within one invocation phases only move forward:
// idle -> processing -> success|error.
const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Endpoint identifies which upstream key tier is active.
type Endpoint string

// Endpoint values.
const (
	EndpointPrimary  Endpoint = "primary"
	EndpointFallback Endpoint = "fallback"
	EndpointUnknown  Endpoint = "unknown"
)

// APIStatus is the status record surfaced to the UI while an enhancement runs.
type APIStatus struct {
	Phase                 Phase    `json:"phase"`
	Message               string   `json:"message"`
	ActiveEndpoint        Endpoint `json:"activeEndpoint"`
	IsSwitchingToFallback bool     `json:"isSwitchingToFallback"`
	UpstreamErrorDetail   string   `json:"upstreamErrorDetail,omitempty"`
}

// IdleStatus returns the status published at the start of every invocation.
func IdleStatus() APIStatus {
	return APIStatus{Phase: PhaseIdle, ActiveEndpoint: EndpointUnknown}
}

// Terminal reports whether the status ends an invocation.
func (s APIStatus) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseError
}

// phaseRank orders phases for the forward-only lifecycle check.
var phaseRank = map[Phase]int{
	PhaseIdle:       0,
	PhaseProcessing: 1,
	PhaseSuccess:    2,
	PhaseError:      2,
}

// Follows reports whether s is a legal successor of prev within one invocation.
func (s APIStatus) Follows(prev APIStatus) bool {
	if prev.Terminal() {
		return false
	}
	return phaseRank[s.Phase] >= phaseRank[prev.Phase]
}
