// Package schedule fires lighting actions at configured times of day.
//
// A Schedule holds ordered events, each an HH:MM time, a set of weekday
// tags and an action (load a scene, all on, all off). Activating a
// schedule starts a goroutine that compares the local wall clock against
// its events once per tick period and hands every match to a Dispatcher,
// sequentially and in list order.
//
// Comparison is at minute granularity. A tick period that does not divide
// a minute evenly can skip a minute or see it twice; with DedupeMinute set
// the second sighting is ignored.
package schedule
