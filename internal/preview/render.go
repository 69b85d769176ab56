// Package preview rasterizes model-space poses to images and encodes them as
// WebP or TGA.
package preview

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
	"skelpack/internal/skeleton"
)

// View selects the projection plane.
type View int

const (
	Front View = iota // X right, Y up, Z toward the viewer
	Side              // Z right, Y up, X away from the viewer
	Top               // X right, Z down, Y toward the viewer
)

// Options controls the preview raster.
type Options struct {
	Size        int     // output width and height in pixels
	Supersample int     // render at Size*Supersample then downsample
	View        View    // projection plane
	BoneRadius  float32 // in output pixels
}

// DefaultOptions renders 256 pixels with 2x supersampling.
func DefaultOptions() Options {
	return Options{Size: 256, Supersample: 2, View: Front, BoneRadius: 3}
}

// project maps a model-space point to (right, up, depth) for the view.
func (v View) project(p mgl32.Vec3) (float32, float32, float32) {
	switch v {
	case Side:
		return p[2], p[1], -p[0]
	case Top:
		return p[0], -p[2], p[1]
	default:
		return p[0], p[1], p[2]
	}
}

// Render draws every joint of s as a disc and every parent link as a
// capsule. models holds one model-space matrix per joint.
func Render(s *skeleton.Skeleton, models []mgl32.Mat4, o Options) *image.NRGBA {
	if o.Supersample < 1 {
		o.Supersample = 1
	}
	renderSize := o.Size * o.Supersample
	n := min(s.NumJoints(), len(models))
	if n == 0 || renderSize <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, max(o.Size, 0), max(o.Size, 0)))
	}

	// Bounding box of the projected joints.
	px, py, pz := make([]float32, n), make([]float32, n), make([]float32, n)
	minX, minY, minZ := float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY, maxZ := float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))
	for i := 0; i < n; i++ {
		px[i], py[i], pz[i] = o.View.project(mathutil.Translation(models[i]))
		minX, maxX = min(minX, px[i]), max(maxX, px[i])
		minY, maxY = min(minY, py[i]), max(maxY, py[i])
		minZ, maxZ = min(minZ, pz[i]), max(maxZ, pz[i])
	}
	span := max(maxX-minX, maxY-minY, 0.001)
	depthSpan := max(maxZ-minZ, 0.001)

	margin := float32(16 * o.Supersample)
	scale := (float32(renderSize) - 2*margin) / span
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	half := float32(renderSize) / 2
	for i := 0; i < n; i++ {
		px[i] = half + (px[i]-cx)*scale
		py[i] = half - (py[i]-cy)*scale // image Y grows downward
	}

	fb := NewFrameBuffer(renderSize, renderSize)
	radius := o.BoneRadius * float32(o.Supersample)
	for i := 0; i < n; i++ {
		shade := 0.55 + 0.45*(pz[i]-minZ)/depthSpan
		if p := s.Parent(i); p != skeleton.NoParent && p < n {
			drawCapsule(fb, px[p], py[p], pz[p], px[i], py[i], pz[i], radius, tone(shade, 200, 200, 210))
		}
	}
	for i := 0; i < n; i++ {
		shade := 0.55 + 0.45*(pz[i]-minZ)/depthSpan
		c := tone(shade, 230, 120, 60)
		if s.Parent(i) == skeleton.NoParent {
			c = tone(shade, 80, 170, 240)
		}
		drawCapsule(fb, px[i], py[i], pz[i]+depthSpan*1e-3, px[i], py[i], pz[i]+depthSpan*1e-3, radius*1.6, c)
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.Color)
	if o.Supersample > 1 {
		img = Downsample(img, o.Size)
	}
	return img
}

type rgb struct{ r, g, b uint8 }

// tone scales a base color by shade and applies ACES filmic mapping.
func tone(shade float32, r, g, b uint8) rgb {
	m := func(c uint8) uint8 {
		x := float64(c) / 255 * float64(shade) * 1.2
		x = (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
		return uint8(math.Round(255 * math.Min(1, math.Max(0, x))))
	}
	return rgb{m(r), m(g), m(b)}
}

// drawCapsule fills every pixel within radius of segment a-b, interpolating
// depth along the segment.
func drawCapsule(fb *FrameBuffer, ax, ay, az, bx, by, bz, radius float32, c rgb) {
	x0 := int(math.Floor(float64(min(ax, bx) - radius)))
	x1 := int(math.Ceil(float64(max(ax, bx) + radius)))
	y0 := int(math.Floor(float64(min(ay, by) - radius)))
	y1 := int(math.Ceil(float64(max(ay, by) + radius)))
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, fb.Width-1), min(y1, fb.Height-1)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	r2 := radius * radius
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			fx, fy := float32(x)+0.5, float32(y)+0.5
			t := float32(0)
			if lenSq > 0 {
				t = mathutil.Clamp(((fx-ax)*dx+(fy-ay)*dy)/lenSq, 0, 1)
			}
			ex, ey := fx-(ax+dx*t), fy-(ay+dy*t)
			if ex*ex+ey*ey > r2 {
				continue
			}
			fb.plot(x, y, az+(bz-az)*t, c.r, c.g, c.b)
		}
	}
}
