package scene

import "errors"

var (
	ErrNoImage           = errors.New("scene: image has no pixels")
	ErrEmptyScene        = errors.New("scene: no node references an object")
	ErrBadNodeRef        = errors.New("scene: invalid node reference")
	ErrBadMaterialRef    = errors.New("scene: invalid material reference")
	ErrNoCamera          = errors.New("scene: invalid camera")
	ErrSingularTransform = errors.New("scene: transform is not invertible")
	ErrBadConfig         = errors.New("scene: invalid sampling configuration")
	ErrNotPrepared       = errors.New("scene: changed since Preprocess")
)
