package renderer

import "errors"

var (
	ErrRenderInProgress = errors.New("renderer: render already in progress")
	ErrNotStarted       = errors.New("renderer: render not started")
	ErrIncomplete       = errors.New("renderer: workers finished with pixels unrendered")
)
