package buttons

// ID is the bit-flag identity of a button in the shift-register bitmap.
// Pseudo-buttons use values above 0xFF00 and never appear in the bitmap.
type ID uint16

// Button identities, one bit each, as wired to the CD4021B shift registers.
const (
	Zone1 ID = 0x0001
	Zone2 ID = 0x0002
	Zone3 ID = 0x0004
	Zone4 ID = 0x0008
	Zone6 ID = 0x0010
	Multi ID = 0x0020 // group-selector action button
	Zone7 ID = 0x0040
	Zone5 ID = 0x0080
	// 0x0100 spare
	Group3    ID = 0x0200
	Group1    ID = 0x0400
	Stop      ID = 0x0800
	EncoderSW ID = 0x1000
	// 0x2000, 0x4000 spare
	Pause ID = 0x8000
)

// Pseudo-buttons. Group2 represents the selector's middle position, which
// has no switch of its own: it is "selected" when neither Group1 nor Group3
// is closed.
const (
	Group2 ID = 0xFF01
)

// pseudo reports whether the ID lives outside the physical bitmap.
func (id ID) pseudo() bool { return id > 0xFF00 }

// In reports whether the button is pressed in the given bitmap sample.
func (id ID) In(bitmap uint16) bool {
	if id.pseudo() {
		return false
	}
	return bitmap&uint16(id) != 0
}

// Kind tags what a button controls.
type Kind int

const (
	KindZone Kind = iota // one irrigation zone
	KindGroupSelector    // one position of the 3-way group selector
	KindAction           // MULTI, PAUSE, STOP
	KindEncoder          // the encoder's push switch
	KindSpare
)

// Capabilities is the static capability record of a button.
type Capabilities struct {
	Enabled    bool // participates in scans at all
	StatusOnly bool // sampled for state but never dispatched as an action
	Action     bool // dispatched to the state machine
	DualEdge   bool // emits on release as well as press
	HoldDetect bool // repeat-fires every poll while held (long-press upstream)
}

// Button is one logical control on the front panel.
//
// Identity, kind, capabilities and LED binding are fixed at startup. Name
// and Idx are mutable through configuration; HoldDisabled is toggled at
// runtime by the state machine to scope long-press detection to the states
// that use it.
type Button struct {
	ID   ID
	Kind Kind
	Zone int // 1-based zone number for KindZone, else 0
	LED  int // bound LED id, 0 for none
	Caps Capabilities

	// Name is the display description, seeded from the declaration and
	// overwritten from configuration or the remote endpoint.
	Name string

	// Idx is the external actuator reference. 0 means no actuator bound.
	Idx int

	// HoldDisabled suppresses hold repeat-fire while set.
	HoldDisabled bool

	pressed     bool
	lastPressed bool
}

// Pressed returns the debounced state from the most recent scan.
func (b *Button) Pressed() bool { return b.pressed }

// ZoneIDs lists the zone buttons in zone order (zone 1 first).
var ZoneIDs = [...]ID{Zone1, Zone2, Zone3, Zone4, Zone5, Zone6, Zone7}

// GroupIDs lists the selector positions in position order (up, middle, down).
var GroupIDs = [...]ID{Group1, Group2, Group3}

// NumZones and NumGroups are fixed by the panel hardware.
const (
	NumZones  = len(ZoneIDs)
	NumGroups = len(GroupIDs)
)

// LED identities as wired to the 74HC595 shift registers.
const (
	LEDBlue   = 3
	LEDRed    = 4
	LEDGreen  = 5
	LEDGroup1 = 6
	LEDGroup2 = 7
	LEDGroup3 = 8
	LEDZone1  = 10
	LEDZone2  = 11
	LEDZone3  = 12
	LEDZone4  = 13
	LEDZone5  = 14
	LEDZone6  = 15
	LEDZone7  = 16
)

// NewPanel returns the panel's button set in scan order. Zone buttons come
// first so a zone press wins when several inputs change in the same poll.
func NewPanel() []*Button {
	enabled := Capabilities{Enabled: true, Action: true}
	status := Capabilities{Enabled: true, StatusOnly: true, DualEdge: true}
	return []*Button{
		{ID: Zone1, Kind: KindZone, Zone: 1, LED: LEDZone1, Caps: enabled, Name: "ZONA1"},
		{ID: Zone2, Kind: KindZone, Zone: 2, LED: LEDZone2, Caps: enabled, Name: "ZONA2"},
		{ID: Zone3, Kind: KindZone, Zone: 3, LED: LEDZone3, Caps: enabled, Name: "ZONA3"},
		{ID: Zone4, Kind: KindZone, Zone: 4, LED: LEDZone4, Caps: enabled, Name: "ZONA4"},
		{ID: Zone5, Kind: KindZone, Zone: 5, LED: LEDZone5, Caps: enabled, Name: "ZONA5"},
		{ID: Zone6, Kind: KindZone, Zone: 6, LED: LEDZone6, Caps: enabled, Name: "ZONA6"},
		{ID: Zone7, Kind: KindZone, Zone: 7, LED: LEDZone7, Caps: enabled, Name: "ZONA7"},
		{ID: EncoderSW, Kind: KindEncoder, Caps: status, Name: "ENCODER"},
		{ID: Multi, Kind: KindAction, Caps: enabled, Name: "MULTIRIEGO"},
		{ID: Group1, Kind: KindGroupSelector, LED: LEDGroup1, Caps: status, Name: "GRUPO1"},
		{ID: Group2, Kind: KindGroupSelector, LED: LEDGroup2, Caps: Capabilities{}, Name: "GRUPO2"},
		{ID: Group3, Kind: KindGroupSelector, LED: LEDGroup3, Caps: status, Name: "GRUPO3"},
		{ID: Pause, Kind: KindAction, Caps: Capabilities{Enabled: true, Action: true, DualEdge: true, HoldDetect: true}, Name: "PAUSE"},
		{ID: Stop, Kind: KindAction, Caps: Capabilities{Enabled: true, Action: true, DualEdge: true}, Name: "STOP"},
	}
}
