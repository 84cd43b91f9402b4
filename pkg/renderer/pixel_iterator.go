package renderer

import "sync/atomic"

// PixelIterator hands out pixel coordinates to render workers. A single atomic
// cursor walks the image in row-major order, so every pixel is claimed by
// exactly one caller.
type PixelIterator struct {
	width, height int
	cursor        atomic.Int64
}

// NewPixelIterator creates an iterator over a width x height image
func NewPixelIterator(width, height int) *PixelIterator {
	return &PixelIterator{width: width, height: height}
}

// Next claims the next pixel. It returns false once every pixel is claimed.
func (it *PixelIterator) Next() (x, y int, ok bool) {
	i := int(it.cursor.Add(1) - 1)
	if i >= it.width*it.height {
		return 0, 0, false
	}
	return i % it.width, i / it.width, true
}

// Exhausted reports whether every pixel has been claimed
func (it *PixelIterator) Exhausted() bool {
	return int(it.cursor.Load()) >= it.width*it.height
}
