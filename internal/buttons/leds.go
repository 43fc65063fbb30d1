package buttons

// LEDDriver is the output half of the panel hardware. The shift-register
// driver implements it on the box; the terminal front panel implements it
// in the simulator.
type LEDDriver interface {
	// SetLED drives one LED on or off.
	SetLED(id int, on bool)
	// SetDim dims or restores the whole panel (standby energy saving).
	SetDim(dim bool)
}

// NopLEDs discards all LED traffic. Tests use it.
type NopLEDs struct{}

func (NopLEDs) SetLED(int, bool) {}
func (NopLEDs) SetDim(bool)      {}

// GroupLED maps a selector position (1..3) to its LED id.
func GroupLED(position int) int {
	switch position {
	case 1:
		return LEDGroup1
	case 2:
		return LEDGroup2
	case 3:
		return LEDGroup3
	}
	return 0
}

// ZoneLED maps a zone number (1..7) to its LED id.
func ZoneLED(zone int) int {
	if zone < 1 || zone > NumZones {
		return 0
	}
	return LEDZone1 + zone - 1
}
