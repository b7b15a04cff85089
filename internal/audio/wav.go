package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV serializes decoded audio into a self-contained single-subchunk
// PCM WAV container: RIFF/WAVE header, a 16-byte "fmt " subchunk declaring
// 16-bit PCM, then one "data" subchunk. Samples are clamped to [-1, 1] and
// scaled to signed 16-bit, written little-endian throughout. For mono input
// the header is the canonical 44 bytes.
func EncodeWAV(d Decoded) []byte {
	dataSize := len(d.Samples) * 2
	blockAlign := d.Channels * 2
	byteRate := d.SampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	// RIFF header
	buf.WriteString("RIFF")
	writeU32(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt sub-chunk
	buf.WriteString("fmt ")
	writeU32(&buf, 16) // sub-chunk size
	writeU16(&buf, 1)  // PCM format
	writeU16(&buf, uint16(d.Channels))
	writeU32(&buf, uint32(d.SampleRate))
	writeU32(&buf, uint32(byteRate))
	writeU16(&buf, uint16(blockAlign))
	writeU16(&buf, 16) // bits per sample

	// data sub-chunk
	buf.WriteString("data")
	writeU32(&buf, uint32(dataSize))
	for _, s := range d.Samples {
		writeU16(&buf, uint16(quantize(s)))
	}

	return buf.Bytes()
}

// quantize clamps a sample to [-1, 1] and scales it by 32768, saturating
// at the int16 limits instead of wrapping. The symmetric scale keeps the
// round trip through DecodePCM16 exact and bounds the error for arbitrary
// samples at 1/32768.
func quantize(s float32) int16 {
	if s <= -1 {
		return -32768
	}
	v := int32(s * 32768)
	if v > 32767 {
		v = 32767
	}
	return int16(v)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
