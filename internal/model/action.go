package model

// PlugAction is a change of the vehicle's plug status.
type PlugAction string

const (
	Plug   PlugAction = "plug"
	Unplug PlugAction = "unplug"
)

// Action is the command applied with one simulation step. Nil fields
// mean "no change".
type Action struct {
	TargetTempCommand *float64 `json:"target_temp_command" yaml:"target_temp_command"`
	EVAction          EVAction `json:"ev_action" yaml:"ev_action"`
}

// EVAction is the vehicle part of an Action.
type EVAction struct {
	PlugAction        *PlugAction `json:"plug_action" yaml:"plug_action"`
	EndtripAutonomy   *float64    `json:"endtrip_autonomy" yaml:"endtrip_autonomy"`     // km left when the vehicle comes back
	AutonomyObjective *float64    `json:"autonomy_objective" yaml:"autonomy_objective"` // km
}

// IsEmpty reports whether the action changes nothing.
func (a Action) IsEmpty() bool {
	return a.TargetTempCommand == nil && a.EVAction.IsEmpty()
}

func (a EVAction) IsEmpty() bool {
	return a.PlugAction == nil && a.EndtripAutonomy == nil && a.AutonomyObjective == nil
}

// Float returns a pointer to v, for building actions.
func Float(v float64) *float64 {
	return &v
}

// PlugActionPtr returns a pointer to p, for building actions.
func PlugActionPtr(p PlugAction) *PlugAction {
	return &p
}
