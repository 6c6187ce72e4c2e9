package domain

// CommandID identifies one configurable aspect of the amplifier.
type CommandID int

const (
	CommandSamplingRate CommandID = iota
	CommandRange
	CommandFinalBandwidth
	CommandMainTrial
	CommandVhold
	CommandVamp
	CommandTPeriod
	CommandApplyProtocol
	CommandCompensateAll
)

func (c CommandID) String() string {
	switch c {
	case CommandSamplingRate:
		return "sampling_rate"
	case CommandRange:
		return "range"
	case CommandFinalBandwidth:
		return "final_bandwidth"
	case CommandMainTrial:
		return "main_trial"
	case CommandVhold:
		return "vhold"
	case CommandVamp:
		return "vamp"
	case CommandTPeriod:
		return "t_period"
	case CommandApplyProtocol:
		return "apply_protocol"
	case CommandCompensateAll:
		return "compensate_all"
	default:
		return "unknown"
	}
}

// RadioID selects one entry of an enumerated device setting.
type RadioID int

const (
	RadioSamplingRate1_25kHz RadioID = iota
	RadioSamplingRate5kHz
	RadioSamplingRate10kHz
	RadioSamplingRate20kHz

	RadioRange200pA
	RadioRange2nA
	RadioRange20nA
	RadioRange200nA

	RadioFinalBandwidthSR2
	RadioFinalBandwidthSR8
	RadioFinalBandwidth1kHz
)

// CommandPayload carries the argument of a staged command. Only the field
// matching the command's kind is meaningful; the receiver ignores the rest.
type CommandPayload struct {
	Radio   RadioID
	Value   float64
	Pressed bool
}

// RadioPayload builds a payload for an enumerated selection command.
func RadioPayload(r RadioID) CommandPayload {
	return CommandPayload{Radio: r}
}

// ValuePayload builds a payload for a magnitude command (mV, ms, trial index).
func ValuePayload(v float64) CommandPayload {
	return CommandPayload{Value: v}
}

// ButtonPayload builds a payload for a press-state command.
func ButtonPayload(pressed bool) CommandPayload {
	return CommandPayload{Pressed: pressed}
}
