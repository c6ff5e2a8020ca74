package voice

import "encoding/binary"

// Level computes the mean absolute amplitude of a little-endian 16-bit
// mono PCM frame, normalized to [0, 1]. An all-zero or empty frame
// yields 0. A trailing odd byte is ignored.
func Level(frame []byte) float64 {
	samples := len(frame) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples*2; i += 2 {
		s := int16(binary.LittleEndian.Uint16(frame[i:]))
		v := float64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}

	return sum / (float64(samples) * 32768.0)
}
