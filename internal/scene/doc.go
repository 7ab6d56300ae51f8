// Package scene captures device levels as named snapshots and restores them.
//
// A scene is a copy of each device's level at save time, not a set of live
// references. Loading a scene sends one command per member in stored order
// and skips members whose device has since disappeared; the result reports
// how many were applied.
//
// Scenes persist in SQLite through Repository and are served from the
// Registry's in-memory cache.
package scene
