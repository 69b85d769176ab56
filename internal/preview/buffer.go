package preview

import "math"

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	Depth  []float32 // nearest depth per pixel, initialized to -inf
}

// NewFrameBuffer allocates a transparent color buffer and an empty depth buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	depth := make([]float32, n)
	for i := range depth {
		depth[i] = float32(math.Inf(-1))
	}
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		Depth:  depth,
	}
}

// plot writes an opaque pixel when z is nearer than what the buffer holds.
func (fb *FrameBuffer) plot(x, y int, z float32, r, g, b uint8) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	i := y*fb.Width + x
	if z <= fb.Depth[i] {
		return
	}
	fb.Depth[i] = z
	c := i * 4
	fb.Color[c], fb.Color[c+1], fb.Color[c+2], fb.Color[c+3] = r, g, b, 255
}
