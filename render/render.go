// Package render draws a snake arm and its target as images and as
// terminal cell marks, projecting through a shared view.View.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	"zappem.net/pub/math/geom"

	"zappem.net/pub/kinematics/fabrik/view"
)

// Style holds the sizes and colors of a rendered frame. Radii and
// widths are in world units.
type Style struct {
	Width, Height int
	Supersample   int

	Background color.RGBA
	Body       color.RGBA
	Link       color.RGBA
	Target     color.RGBA

	JointRadius  float64
	TargetRadius float64
	LinkWidth    float64

	// Backdrop, when set, is scaled to fill the frame instead of the
	// Background color.
	Backdrop image.Image
}

// DefaultStyle returns the look of the snake demo: green joints on
// white with a red target.
func DefaultStyle() Style {
	return Style{
		Width:        512,
		Height:       512,
		Supersample:  2,
		Background:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Body:         color.RGBA{R: 26, G: 179, B: 51, A: 255},
		Link:         color.RGBA{R: 20, G: 110, B: 40, A: 255},
		Target:       color.RGBA{R: 255, G: 51, B: 51, A: 255},
		JointRadius:  0.2,
		TargetRadius: 0.15,
		LinkWidth:    0.08,
	}
}

// circleSides is the polygon resolution of joint and target discs.
const circleSides = 32

type disc struct {
	p     geom.Vector
	r     float64
	depth float64
	c     color.RGBA
}

// Draw paints joints, the links between them and target into dst.
// Links go down first, then discs from the back of the view forward.
func Draw(dst *image.RGBA, joints []geom.Vector, target geom.Vector, v view.View, st Style) {
	b := dst.Bounds()
	if st.Backdrop != nil {
		draw.CatmullRom.Scale(dst, b, st.Backdrop, st.Backdrop.Bounds(), draw.Src, nil)
	} else {
		draw.Draw(dst, b, image.NewUniform(st.Background), image.Point{}, draw.Src)
	}

	w, h := float64(b.Dx()), float64(b.Dy())
	ppu := v.Scale() * w
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	pt := func(p geom.Vector) (float64, float64, float64) {
		x, y, d := v.Project(p)
		return x * w, y * h, d
	}

	for i := 0; i+1 < len(joints); i++ {
		x0, y0, _ := pt(joints[i])
		x1, y1, _ := pt(joints[i+1])
		stroke(z, x0, y0, x1, y1, 0.5*st.LinkWidth*ppu)
		fill(z, dst, st.Link)
	}

	ds := make([]disc, 0, len(joints)+1)
	for _, j := range joints {
		ds = append(ds, disc{p: j, r: st.JointRadius, c: st.Body})
	}
	if target != nil {
		ds = append(ds, disc{p: target, r: st.TargetRadius, c: st.Target})
	}
	for i := range ds {
		_, _, ds[i].depth = v.Project(ds[i].p)
	}
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].depth < ds[j].depth })
	for _, d := range ds {
		x, y, _ := pt(d.p)
		circle(z, x, y, d.r*ppu)
		fill(z, dst, d.c)
	}
}

// fill composites the current rasterizer path over dst in color c and
// clears the path.
func fill(z *vector.Rasterizer, dst *image.RGBA, c color.RGBA) {
	b := dst.Bounds()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
	z.Reset(b.Dx(), b.Dy())
}

func circle(z *vector.Rasterizer, cx, cy, r float64) {
	for k := 0; k < circleSides; k++ {
		a := 2 * math.Pi * float64(k) / circleSides
		x, y := float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a))
		if k == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

// stroke adds a quad of half width hw around the segment (x0,y0)-(x1,y1).
func stroke(z *vector.Rasterizer, x0, y0, x1, y1, hw float64) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

// Frame renders a st.Width by st.Height image of the chain. With a
// Supersample factor above one the scene is drawn that many times
// larger and filtered down.
func Frame(joints []geom.Vector, target geom.Vector, v view.View, st Style) *image.RGBA {
	ss := st.Supersample
	if ss < 1 {
		ss = 1
	}
	big := image.NewRGBA(image.Rect(0, 0, st.Width*ss, st.Height*ss))
	Draw(big, joints, target, v, st)
	if ss == 1 {
		return big
	}
	dst := image.NewRGBA(image.Rect(0, 0, st.Width, st.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), big, big.Bounds(), draw.Src, nil)
	return dst
}

// EncodeWebP writes img to w as a lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("render: webp encode: %w", err)
	}
	return nil
}

// Save writes img as a WebP file at path.
func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	if err := EncodeWebP(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// backdropDecoders picks a decoder by file extension. The tga package
// registers with image.Decode under an empty magic string and would
// claim every file, so image.Decode is not used here.
var backdropDecoders = map[string]func(io.Reader) (image.Image, error){
	".tga":  tga.Decode,
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
}

// LoadBackdrop decodes a TGA, PNG or JPEG image for Style.Backdrop,
// choosing the format from the file extension.
func LoadBackdrop(path string) (image.Image, error) {
	decode, ok := backdropDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("render: %s: unsupported backdrop format %q", path, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: open %s: %w", path, err)
	}
	defer f.Close()
	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("render: decode %s: %w", path, err)
	}
	return img, nil
}
