package usb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/edemonpore/caller/internal/domain"
)

var (
	errBadMarker   = errors.New("bad packet marker")
	errBadChecksum = errors.New("bad packet checksum")
)

// checksum8 folds a byte sum the way the firmware does: quotient plus
// remainder of the 256 division, twice.
func checksum8(b []byte) uint8 {
	var a uint16
	for _, v := range b {
		a += uint16(v)
	}
	q := a / 256
	a = (a - 256*q) + q
	q = a / 256
	return uint8((a - 256*q) + q)
}

// encodeCommand renders one staged command as a 16-byte frame:
//
//	[0]     checksum8 over [1:]
//	[1]     command marker
//	[2]     command id
//	[3]     flags, bit0 = apply
//	[4:6]   radio selection, little endian
//	[6:10]  float32 magnitude, little endian
//	[10]    press state
//	[11:16] reserved
func encodeCommand(id domain.CommandID, payload domain.CommandPayload, apply bool) []byte {
	frame := make([]byte, commandFrameLen)
	frame[1] = commandMarker
	frame[2] = byte(id)
	if apply {
		frame[3] = 1
	}
	binary.LittleEndian.PutUint16(frame[4:6], uint16(payload.Radio))
	binary.LittleEndian.PutUint32(frame[6:10], math.Float32bits(float32(payload.Value)))
	if payload.Pressed {
		frame[10] = 1
	}
	frame[0] = checksum8(frame[1:])
	return frame
}

// streamPacket is one decoded bulk-in transfer: a run of whole frames plus
// the acquisition flags the firmware attaches to it.
type streamPacket struct {
	lostData bool
	seq      uint32
	frames   []domain.Frame
}

// decodePacket validates and splits one bulk-in transfer. Layout:
//
//	[0]    checksum8 over [1:]
//	[1]    stream marker
//	[2]    flags, bit0 = instrument data loss
//	[3]    frame count
//	[4:8]  sequence number, little endian
//	[8:]   count * channels float32 values, little endian
func decodePacket(raw []byte, channels int) (streamPacket, error) {
	if len(raw) < packetHeaderLen {
		return streamPacket{}, fmt.Errorf("packet too short: %d bytes", len(raw))
	}
	if raw[1] != streamMarker {
		return streamPacket{}, fmt.Errorf("%w: 0x%02x", errBadMarker, raw[1])
	}
	if checksum8(raw[1:]) != raw[0] {
		return streamPacket{}, errBadChecksum
	}

	count := int(raw[3])
	body := raw[packetHeaderLen:]
	if want := count * channels * 4; len(body) < want {
		return streamPacket{}, fmt.Errorf("truncated packet: %d frames need %d bytes, have %d", count, want, len(body))
	}

	frames := make([]domain.Frame, 0, count)
	for i := 0; i < count; i++ {
		frame := make(domain.Frame, channels)
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 4
			frame[ch] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		}
		frames = append(frames, frame)
	}

	return streamPacket{
		lostData: raw[2]&1 != 0,
		seq:      binary.LittleEndian.Uint32(raw[4:8]),
		frames:   frames,
	}, nil
}

// packetSize is the fixed bulk-in transfer size for a given frame width.
func packetSize(channels, framesPerPacket int) int {
	return packetHeaderLen + framesPerPacket*channels*4
}
