package model

import "time"

type PlugStatus string

const (
	Plugged   PlugStatus = "plugged"
	Unplugged PlugStatus = "unplugged"
)

type ChargingStatus string

const (
	Idle     ChargingStatus = "idle"
	Charging ChargingStatus = "charging"
)

// Policy is a daily tariff policy. Variable days apply the peak price
// during the peak blocks.
type Policy string

const (
	PolicyFixed       Policy = "fixed"
	PolicyVariable    Policy = "variable"
	PolicyUnpublished Policy = "unpublished"
)

// State is the full snapshot returned after every step.
type State struct {
	HouseState  HouseState `json:"house_state"`
	GridState   GridState  `json:"grid_state"`
	Time        time.Time  `json:"time"`
	OutdoorTemp float64    `json:"outdoor_temp"`
}

type HouseState struct {
	CurrentTemp      float64     `json:"current_temp"`
	TargetTemp       float64     `json:"target_temp"`
	CoolingUnit      DeviceState `json:"cooling_unit"`
	HeatingUnit      DeviceState `json:"heating_unit"`
	EV               EVState     `json:"ev"`
	HouseConsumption float64     `json:"house_consumption"` // W
}

type DeviceState struct {
	TurnedOn         bool    `json:"turned_on"`
	PowerConsumption float64 `json:"power_consumption"` // W
}

type EVState struct {
	BatteryLevel      *float64       `json:"battery_level"`    // Wh, nil while unplugged
	CurrentAutonomy   *float64       `json:"current_autonomy"` // km, nil while unplugged
	PlugStatus        PlugStatus     `json:"plug_status"`
	ChargingStatus    ChargingStatus `json:"charging_status"`
	AutonomyObjective float64        `json:"autonomy_objective"` // km
	PowerConsumption  float64        `json:"power_consumption"`  // W
}

type GridState struct {
	TodayPolicy    Policy  `json:"today_policy"`
	TomorrowPolicy Policy  `json:"tomorrow_policy"`
	Price          float64 `json:"price"` // $/Wh
	TotalExpenses  float64 `json:"total_expenses"`
	DayExpenses    float64 `json:"day_expenses"`
	BlockExpenses  float64 `json:"block_expenses"`
}
