package house

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const kelvinOffset = 273

var (
	ErrNonPositiveDiscriminant = errors.New("thermal parameters give a non-positive discriminant")
	ErrInvalidThermalParams    = errors.New("invalid thermal parameters")
)

// ThermalParams describes the two-node RC network of the house.
type ThermalParams struct {
	Ua float64 `yaml:"ua" json:"ua"` // walls conductance to outdoors (W/K)
	Ca float64 `yaml:"ca" json:"ca"` // air thermal mass (J/K)
	Hm float64 `yaml:"hm" json:"hm"` // mass surface conductance to air (W/K)
	Cm float64 `yaml:"cm" json:"cm"` // house thermal mass (J/K)
}

// ThermalSolver integrates the air/mass temperature pair in closed form.
// For constant inputs the result after a span does not depend on how
// the span is split into steps.
//
// Model from the GridLAB-D residential module user's guide.
type ThermalSolver struct {
	p      ThermalParams
	r1, r2 float64
}

func NewThermalSolver(p ThermalParams) (*ThermalSolver, error) {
	a, b, c := p.quadratic()
	disc := b*b - 4*a*c
	if !(disc > 0) {
		return nil, fmt.Errorf("%w: %v (ua=%v ca=%v hm=%v cm=%v)", ErrNonPositiveDiscriminant, disc, p.Ua, p.Ca, p.Hm, p.Cm)
	}
	if p.Ua <= 0 || p.Ca <= 0 || p.Hm <= 0 || p.Cm <= 0 {
		return nil, fmt.Errorf("%w: conductances and capacitances must be positive (ua=%v ca=%v hm=%v cm=%v)", ErrInvalidThermalParams, p.Ua, p.Ca, p.Hm, p.Cm)
	}
	sq := math.Sqrt(disc)
	return &ThermalSolver{
		p:  p,
		r1: (-b + sq) / (2 * a),
		r2: (-b - sq) / (2 * a),
	}, nil
}

func (p ThermalParams) quadratic() (a, b, c float64) {
	a = p.Cm * p.Ca / p.Hm
	b = p.Cm*(p.Ua+p.Hm)/p.Hm + p.Ca
	c = p.Ua
	return a, b, c
}

// Integrate advances the air and mass temperatures (°C) by dt with the
// outdoor temperature odTemp (°C) and the net heat qa (W) injected into
// the air node held constant.
func (s *ThermalSolver) Integrate(airTemp, massTemp, odTemp, qa float64, dt time.Duration) (newAir, newMass float64) {
	Ua, Ca, Hm := s.p.Ua, s.p.Ca, s.p.Hm
	r1, r2 := s.r1, s.r2

	odK := odTemp + kelvinOffset
	airK := airTemp + kelvinOffset
	massK := massTemp + kelvinOffset

	// Internal gains on the mass node are not modelled.
	const qm = 0.0

	c := Ua
	d := qm + qa + Ua*odK
	g := qm / Hm

	dTA0dt := Hm*massK/Ca - (Ua+Hm)*airK/Ca + Ua*odK/Ca + qa/Ca

	a1 := (r2*airK - dTA0dt - r2*d/c) / (r2 - r1)
	a2 := airK - d/c - a1
	a3 := r1*Ca/Hm + (Ua+Hm)/Hm
	a4 := r2*Ca/Hm + (Ua+Hm)/Hm

	sec := dt.Seconds()
	e1 := math.Exp(r1 * sec)
	e2 := math.Exp(r2 * sec)

	newAirK := a1*e1 + a2*e2 + d/c
	newMassK := a1*a3*e1 + a2*a4*e2 + g + d/c

	return newAirK - kelvinOffset, newMassK - kelvinOffset
}
