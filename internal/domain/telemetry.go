package domain

// DeviceStatus is an instantaneous snapshot of the device health counters.
// It reflects the device at the moment of the poll call only; the background
// acquisition thread keeps filling the device buffer afterwards.
type DeviceStatus struct {
	AvailablePackets uint32
	BufferOverflow   bool
	LostData         bool
}

// Frame is one time-sample across all channels. Index 0 is the voltage
// channel in millivolts; the remaining entries are current channels in pA or
// nA depending on the active range.
type Frame []float32

// SplitFrames regroups a flat channel-interleaved buffer into frames of
// channels values each. Trailing values that do not fill a whole frame are
// dropped.
func SplitFrames(flat []float32, channels int) []Frame {
	if channels <= 0 {
		return nil
	}
	n := len(flat) / channels
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, Frame(flat[i*channels:(i+1)*channels]))
	}
	return frames
}

// FlattenFrames is the inverse of SplitFrames.
func FlattenFrames(frames []Frame) []float32 {
	var total int
	for _, f := range frames {
		total += len(f)
	}
	flat := make([]float32, 0, total)
	for _, f := range frames {
		flat = append(flat, f...)
	}
	return flat
}
