package device

// State is the machine's resting state.
type State string

const (
	// StateInit is the pre-boot state; only Boot is legal here.
	StateInit State = "Init"

	// StateReady means a device is selected but no session is active.
	StateReady State = "Ready"

	// StateFullDuplexActive means a session is running on a healthy device.
	StateFullDuplexActive State = "FullDuplexActive"

	// StateDeviceSwitching means no usable device is currently available;
	// the machine is waiting for the list to produce one.
	StateDeviceSwitching State = "DeviceSwitching"

	// StateDegraded means a session is running but at least one degradation
	// flag is raised.
	StateDegraded State = "Degraded"

	// StateFailed is terminal. Nothing recovers from it.
	StateFailed State = "Failed"
)

// Flag names one independent degradation condition.
type Flag string

const (
	FlagAecUnstable Flag = "aec_unstable"
	FlagStreamGap   Flag = "stream_gap"
)

// Event is the sealed union of machine inputs.
type Event interface {
	deviceEvent() // sealed
}

// Boot provides the initial device list. Legal only in Init.
type Boot struct{ Available []Info }

// Activate starts a full-duplex session. No-op outside Ready.
type Activate struct{}

// Deactivate ends the session. No-op unless a session is running.
type Deactivate struct{}

// DeviceListChanged replaces the available device list.
type DeviceListChanged struct{ Available []Info }

// PermissionLost reports the platform revoked audio permission. Terminal.
type PermissionLost struct{}

// AecUnstable and AecStable raise and clear the echo-cancellation flag.
type AecUnstable struct{}
type AecStable struct{}

// StreamGapDetected and StreamGapRecovered raise and clear the stream-gap flag.
type StreamGapDetected struct{}
type StreamGapRecovered struct{}

func (Boot) deviceEvent()               {}
func (Activate) deviceEvent()           {}
func (Deactivate) deviceEvent()         {}
func (DeviceListChanged) deviceEvent()  {}
func (PermissionLost) deviceEvent()     {}
func (AecUnstable) deviceEvent()        {}
func (AecStable) deviceEvent()          {}
func (StreamGapDetected) deviceEvent()  {}
func (StreamGapRecovered) deviceEvent() {}

// Output is the sealed union of transition outputs.
type Output interface {
	deviceOutput() // sealed
}

// Selected reports a device selection.
type Selected struct{ DeviceID string }

// Transitioned reports a state change.
type Transitioned struct{ From, To State }

// FlagRaised and FlagCleared report degradation flag changes.
type FlagRaised struct{ Flag Flag }
type FlagCleared struct{ Flag Flag }

func (Selected) deviceOutput()     {}
func (Transitioned) deviceOutput() {}
func (FlagRaised) deviceOutput()   {}
func (FlagCleared) deviceOutput()  {}

// Machine is the device selection/degradation state machine. Single-owner
// mutable state; callers serialize Handle.
type Machine struct {
	state     State
	preferred string

	available     []Info
	selected      string
	lastKnownGood string

	aecUnstable bool
	streamGap   bool

	// Whether a session was running when the active device vanished, so a
	// successful switch can resume it.
	resumeActive bool
}

// New creates a machine in Init. preferredDeviceID may be empty.
func New(preferredDeviceID string) *Machine {
	return &Machine{state: StateInit, preferred: preferredDeviceID}
}

// State returns the current resting state.
func (m *Machine) State() State { return m.state }

// SelectedDevice returns the active device ID, or "" when none is selected.
func (m *Machine) SelectedDevice() string { return m.selected }

// FlagSet reports whether the given degradation flag is raised.
func (m *Machine) FlagSet(f Flag) bool {
	switch f {
	case FlagAecUnstable:
		return m.aecUnstable
	case FlagStreamGap:
		return m.streamGap
	}
	return false
}

func (m *Machine) allClear() bool { return !m.aecUnstable && !m.streamGap }

// Handle applies one event and returns the outputs the transition produced.
// Events that are not legal in the current state are silent no-ops, with two
// exceptions: events before Boot and a second Boot are caller bugs and return
// a TransitionError.
func (m *Machine) Handle(ev Event) ([]Output, error) {
	if m.state == StateFailed {
		return nil, nil
	}

	switch e := ev.(type) {
	case Boot:
		return m.handleBoot(e)
	case PermissionLost:
		return m.transition(StateFailed), nil
	}

	if m.state == StateInit {
		return nil, &TransitionError{
			Code: ErrCodeNotBooted, Message: "event before Boot", State: m.state,
		}
	}

	switch e := ev.(type) {
	case Activate:
		return m.handleActivate(), nil
	case Deactivate:
		return m.handleDeactivate(), nil
	case DeviceListChanged:
		return m.handleDeviceListChanged(e)
	case AecUnstable:
		return m.raiseFlag(FlagAecUnstable, &m.aecUnstable), nil
	case AecStable:
		return m.clearFlag(FlagAecUnstable, &m.aecUnstable), nil
	case StreamGapDetected:
		return m.raiseFlag(FlagStreamGap, &m.streamGap), nil
	case StreamGapRecovered:
		return m.clearFlag(FlagStreamGap, &m.streamGap), nil
	}

	return nil, nil
}

func (m *Machine) handleBoot(e Boot) ([]Output, error) {
	if m.state != StateInit {
		return nil, &TransitionError{
			Code: ErrCodeAlreadyBooted, Message: "machine already booted", State: m.state,
		}
	}
	if err := checkDevices(e.Available, m.state); err != nil {
		return nil, err
	}
	m.available = e.Available

	id := selectDevice(m.available, m.preferred, m.lastKnownGood)
	if id == "" {
		return m.transition(StateDeviceSwitching), nil
	}

	out := m.selectOutputs(id)
	out = append(out, m.transition(StateReady)...)
	return out, nil
}

func (m *Machine) handleActivate() []Output {
	if m.state != StateReady {
		return nil
	}
	if m.allClear() {
		return m.transition(StateFullDuplexActive)
	}
	return m.transition(StateDegraded)
}

func (m *Machine) handleDeactivate() []Output {
	if m.state != StateFullDuplexActive && m.state != StateDegraded {
		return nil
	}
	return m.transition(StateReady)
}

func (m *Machine) handleDeviceListChanged(e DeviceListChanged) ([]Output, error) {
	if err := checkDevices(e.Available, m.state); err != nil {
		return nil, err
	}
	m.available = e.Available

	if m.selected != "" && hasDevice(m.available, m.selected) {
		return nil, nil // active device survived the change
	}

	var out []Output
	if m.state != StateDeviceSwitching {
		m.resumeActive = m.state == StateFullDuplexActive || m.state == StateDegraded
		m.selected = ""
		out = append(out, m.transition(StateDeviceSwitching)...)
	}

	id := selectDevice(m.available, m.preferred, m.lastKnownGood)
	if id == "" {
		return out, nil // keep waiting
	}

	out = append(out, m.selectOutputs(id)...)
	switch {
	case m.resumeActive && m.allClear():
		out = append(out, m.transition(StateFullDuplexActive)...)
	case m.resumeActive:
		out = append(out, m.transition(StateDegraded)...)
	default:
		out = append(out, m.transition(StateReady)...)
	}
	m.resumeActive = false
	return out, nil
}

func (m *Machine) raiseFlag(f Flag, field *bool) []Output {
	if *field {
		return nil
	}
	*field = true
	out := []Output{FlagRaised{Flag: f}}
	if m.state == StateFullDuplexActive {
		out = append(out, m.transition(StateDegraded)...)
	}
	return out
}

func (m *Machine) clearFlag(f Flag, field *bool) []Output {
	if !*field {
		return nil
	}
	*field = false
	out := []Output{FlagCleared{Flag: f}}
	// All flags must be simultaneously clear before the session recovers.
	if m.state == StateDegraded && m.allClear() {
		out = append(out, m.transition(StateFullDuplexActive)...)
	}
	return out
}

func (m *Machine) selectOutputs(id string) []Output {
	m.selected = id
	m.lastKnownGood = id
	return []Output{Selected{DeviceID: id}}
}

func (m *Machine) transition(to State) []Output {
	from := m.state
	m.state = to
	return []Output{Transitioned{From: from, To: to}}
}

func checkDevices(devices []Info, state State) error {
	for _, d := range devices {
		if d.ID == "" {
			return &TransitionError{
				Code: ErrCodeInvalidDevice, Message: "device id must not be empty",
				State: state, DeviceID: d.ID,
			}
		}
	}
	return nil
}
