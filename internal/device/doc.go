// Package device holds the registry of lights discovered on the coach.
//
// Each Device carries the controller-assigned ID, the instance number used
// when encoding commands, its Kind (dimmer or switch), a room code and the
// cached brightness level.
//
// The Registry is populated only by discovery. Control operations update a
// device's cached Level; nothing else mutates an entry. All reads return
// copies, so callers can hold results without locking.
//
// Room codes resolve to display names through Rooms, which starts from the
// factory table and accepts overrides from config.yaml. Codes without a
// name display as "Unknown".
package device
