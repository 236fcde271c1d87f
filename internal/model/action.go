package model

// Action is the battery operating state of one hour.
// Keep these values stable; they appear in the flows CSV.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// BatteryAction classifies an hour by its net battery flow in kW. Flows
// within tol of each other count as idle.
func BatteryAction(charge, discharge, tol float64) Action {
	net := discharge - charge
	switch {
	case net < -tol:
		return ActionCharging
	case net > tol:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
