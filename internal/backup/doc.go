// Package backup exports and imports saved scenes and schedules as a single
// bundle file. Bundles are YAML by default; a .json extension selects JSON.
//
// Imports go through the same validation as interactive saves, so a bundle
// edited by hand cannot introduce an empty scene or a malformed event.
package backup
