// Package control issues lighting commands for discovered devices.
//
// SetLevel, TurnOn and TurnOff encode a SET_LOAD frame through the protocol
// codec and update the device registry's cached level once the frame has
// been sent. AllOn and AllOff report how many devices were reached instead
// of failing on the first error. QueryBrightness refreshes a cached level
// from the controller.
package control
