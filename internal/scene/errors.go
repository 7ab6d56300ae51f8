package scene

import "errors"

// Domain errors for the scene package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, scene.ErrSceneNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSceneNotFound is returned when no scene has the given name.
	ErrSceneNotFound = errors.New("scene: not found")

	// ErrEmptyScene is returned when a snapshot would contain no devices.
	ErrEmptyScene = errors.New("scene: no matching devices")

	// ErrInvalidName is returned when a scene name is empty or too long.
	ErrInvalidName = errors.New("scene: invalid name")

	// ErrInvalidScene is returned when a stored or imported scene is malformed.
	ErrInvalidScene = errors.New("scene: invalid")
)
