package loaders

import "errors"

var (
	ErrUnknownObject   = errors.New("loaders: unknown object")
	ErrUnknownMaterial = errors.New("loaders: unknown material")
	ErrUnknownTexture  = errors.New("loaders: unknown texture")
	ErrUnknownLight    = errors.New("loaders: unknown light")
	ErrNoGeometry      = errors.New("loaders: no triangle geometry")
)
