// Package protocol implements the text protocol spoken by the coach's
// lighting controller.
//
// Outbound frames are "VERB|ARG" tokens:
//
//	GET|DEVICE_COUNT          -> DEVICE_COUNT=5
//	GET|DEVICE_OBJECT_2       -> DEVICE_OBJECT_2={"id":12,"instance":3,"type":0,"room":1,"name":"Galley|Ceiling"}
//	GET|LOAD_STATUS_12        -> LOAD_STATUS_12=75%
//	SET_LOAD|0x034B           (no response)
//
// The SET_LOAD payload is a 16-bit word: device instance in the high byte,
// brightness (dimmers) or a 0/1 level nibble (switches) in the low bits.
// The codec functions are pure and perform no range checks.
package protocol
