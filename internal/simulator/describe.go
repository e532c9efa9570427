package simulator

import (
	"fmt"
	"strings"

	"household_simulator/internal/model"
)

const (
	describeTimeLayout = "January 02, 2006, 03:04 PM"
	noAction           = "No action was taken."
)

// Describe renders the current state as plain English.
func (s *Simulator) Describe() string {
	return DescribeState(s.State())
}

// DescribeState renders a state as plain English, one line per topic
// in a fixed order.
func DescribeState(st model.State) string {
	h, g := st.HouseState, st.GridState
	lines := []string{
		fmt.Sprintf("It is %s, and the outdoors temperature is %.2f C.",
			st.Time.UTC().Format(describeTimeLayout), st.OutdoorTemp),
		fmt.Sprintf("The indoors temperature in the house is %.2f C while the target is %.2f C. "+
			"The air conditioner is %s, the heater is %s. "+
			"The consumption due to the temperature is %.2f kW.",
			h.CurrentTemp, h.TargetTemp,
			onOff(h.CoolingUnit.TurnedOn), onOff(h.HeatingUnit.TurnedOn),
			kW(h.CoolingUnit.PowerConsumption+h.HeatingUnit.PowerConsumption)),
		describeEV(h.EV),
		fmt.Sprintf("The total consumption of the house is %.2f kW.", kW(h.HouseConsumption)),
		fmt.Sprintf("Today's electricity tariff policy is %s and tomorrow's policy is %s. "+
			"The current electricity price is %.1f cents/kWh.",
			policyName(g.TodayPolicy), policyName(g.TomorrowPolicy), centsPerKWh(g.Price)),
		fmt.Sprintf("The total expenses are $%.2f, today's expenses are $%.2f "+
			"and the expenses of the current pricing block are $%.2f.",
			g.TotalExpenses, g.DayExpenses, g.BlockExpenses),
	}
	return strings.Join(lines, "\n")
}

func describeEV(ev model.EVState) string {
	if ev.PlugStatus == model.Unplugged || ev.CurrentAutonomy == nil {
		return "The electric vehicle is unplugged."
	}
	return fmt.Sprintf("The electric vehicle is plugged and the charger is %s. "+
		"Its autonomy is %.1f km while the target autonomy is %.1f km. "+
		"The electric vehicle charger current consumption is %.2f kW.",
		ev.ChargingStatus, *ev.CurrentAutonomy, ev.AutonomyObjective, kW(ev.PowerConsumption))
}

// DescribeAction renders an action as plain English.
func DescribeAction(a model.Action) string {
	if a.IsEmpty() {
		return noAction
	}
	var parts []string
	if a.TargetTempCommand != nil {
		parts = append(parts, fmt.Sprintf("The target indoors temperature is set to %g C.", *a.TargetTempCommand))
	}
	if p := a.EVAction.PlugAction; p != nil {
		switch {
		case *p == model.Unplug:
			parts = append(parts, "The electric vehicle is unplugged.")
		case a.EVAction.EndtripAutonomy != nil:
			parts = append(parts, fmt.Sprintf("The electric vehicle is plugged in with an autonomy of %g km.", *a.EVAction.EndtripAutonomy))
		default:
			parts = append(parts, "The electric vehicle is plugged in.")
		}
	}
	if a.EVAction.AutonomyObjective != nil {
		parts = append(parts, fmt.Sprintf("The target autonomy of the car is set to %g km.", *a.EVAction.AutonomyObjective))
	}
	// An endtrip autonomy without a plug action is ignored.
	if len(parts) == 0 {
		return noAction
	}
	return strings.Join(parts, " ")
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func policyName(p model.Policy) string {
	if p == model.PolicyUnpublished {
		return "not published yet"
	}
	return string(p)
}

func kW(w float64) float64 { return w / 1000 }

// centsPerKWh converts a $/Wh price.
func centsPerKWh(price float64) float64 { return price * 1000 * 100 }
