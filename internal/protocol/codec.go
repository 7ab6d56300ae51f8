package protocol

import (
	"fmt"
	"math"
)

const (
	byteMask   = 0xFF
	nibbleMask = 0x0F
	byteShift  = 8
)

// The Encode functions round and mask their input. They do not clamp:
// callers are responsible for passing values already in range (brightness
// clamped to [0,100], level 0 or 1). Out-of-range input still encodes, by
// masking, so the result is always defined.

// EncodeInstance places round(n) & 0xFF in the high byte of the payload word.
func EncodeInstance(n float64) uint16 {
	return uint16(roundMasked(n, byteMask)) << byteShift
}

// EncodeBrightness places round(n) & 0xFF in the low byte.
func EncodeBrightness(n float64) uint16 {
	return uint16(roundMasked(n, byteMask))
}

// EncodeLevel returns round(n) & 0xF. By convention 1 is on and 0 is off.
func EncodeLevel(n float64) uint16 {
	return uint16(roundMasked(n, nibbleMask))
}

// EncodeOnOff is EncodeLevel(1) for true and EncodeLevel(0) for false.
func EncodeOnOff(on bool) uint16 {
	if on {
		return EncodeLevel(1)
	}
	return EncodeLevel(0)
}

// Pack ORs every field into one word and renders it as 0xHHHH
// (four upper-case, zero-padded hex digits).
//
//	Pack(EncodeInstance(3), EncodeBrightness(200)) // "0x03C8"
func Pack(fields ...uint16) string {
	var word uint16
	for _, f := range fields {
		word |= f
	}
	return fmt.Sprintf("0x%04X", word)
}

// roundMasked rounds half away from zero, then keeps the low bits selected
// by mask using two's-complement semantics for negative input.
func roundMasked(n float64, mask int64) int64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int64(math.Round(n)) & mask
}
