// Package controls models the switch and slider controls of the settings
// screen. Rendering lives in widgets/; these types only hold state and fire
// change listeners.
//
// Controls are not safe for concurrent use. They are owned by the render
// thread.
package controls

import "math"

// Switch is a two-state toggle
type Switch struct {
	Label    string
	checked  bool
	listener func(checked bool)
}

// NewSwitch creates an unchecked switch
func NewSwitch(label string) *Switch {
	return &Switch{Label: label}
}

// Checked returns the current state
func (s *Switch) Checked() bool {
	return s.checked
}

// SetChecked changes the state and notifies the listener when it differs
func (s *Switch) SetChecked(checked bool) {
	if s.checked == checked {
		return
	}
	s.checked = checked
	if s.listener != nil {
		s.listener(checked)
	}
}

// Toggle flips the state
func (s *Switch) Toggle() {
	s.SetChecked(!s.checked)
}

// OnCheckedChange sets the change listener
func (s *Switch) OnCheckedChange(fn func(checked bool)) {
	s.listener = fn
}

// Slider picks a value from [From, To] in increments of Step
type Slider struct {
	Label    string
	From     float64
	To       float64
	Step     float64
	value    float64
	listener func(value float64, fromUser bool)
}

// NewSlider creates a slider positioned at from
func NewSlider(label string, from, to, step float64) *Slider {
	if to < from {
		from, to = to, from
	}
	if step <= 0 {
		step = 1
	}
	return &Slider{Label: label, From: from, To: to, Step: step, value: from}
}

// Value returns the current value
func (s *Slider) Value() float64 {
	return s.value
}

// SetValue moves the slider programmatically
func (s *Slider) SetValue(v float64) {
	s.set(v, false)
}

// Increment moves the slider by n steps on behalf of the user
func (s *Slider) Increment(n int) {
	s.set(s.value+float64(n)*s.Step, true)
}

// Fraction returns the position within the range as 0..1
func (s *Slider) Fraction() float64 {
	if s.To == s.From {
		return 0
	}
	return (s.value - s.From) / (s.To - s.From)
}

// OnChange sets the change listener
func (s *Slider) OnChange(fn func(value float64, fromUser bool)) {
	s.listener = fn
}

func (s *Slider) set(v float64, fromUser bool) {
	v = s.snap(v)
	if v == s.value {
		return
	}
	s.value = v
	if s.listener != nil {
		s.listener(v, fromUser)
	}
}

// snap clamps v to the range and rounds it to the nearest step
func (s *Slider) snap(v float64) float64 {
	if math.IsNaN(v) {
		return s.value
	}
	steps := math.Round((v - s.From) / s.Step)
	v = s.From + steps*s.Step
	return math.Max(s.From, math.Min(s.To, v))
}
