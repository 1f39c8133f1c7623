package scanService

import (
	"HomeGuardGolang/internal/entity"
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var annotationColor = color.NRGBA{R: 220, G: 40, B: 40, A: 255}

const annotationThickness = 3

// annotateFrame draws detection boxes onto an already-cleared frame.
// It only ever runs on privacy-enforced bytes.
func annotateFrame(cleared []byte, detections []entity.Detection) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(cleared))
	if err != nil {
		return nil, err
	}

	canvas := imaging.Clone(img)
	bounds := canvas.Bounds()

	for _, det := range detections {
		box := image.Rect(int(det.BBox.X1), int(det.BBox.Y1), int(det.BBox.X2), int(det.BBox.Y2)).Intersect(bounds)
		if box.Empty() {
			continue
		}
		drawRect(canvas, box)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func drawRect(canvas *image.NRGBA, box image.Rectangle) {
	for t := 0; t < annotationThickness; t++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			setIfInside(canvas, x, box.Min.Y+t)
			setIfInside(canvas, x, box.Max.Y-1-t)
		}
		for y := box.Min.Y; y < box.Max.Y; y++ {
			setIfInside(canvas, box.Min.X+t, y)
			setIfInside(canvas, box.Max.X-1-t, y)
		}
	}
}

func setIfInside(canvas *image.NRGBA, x, y int) {
	if image.Pt(x, y).In(canvas.Bounds()) {
		canvas.SetNRGBA(x, y, annotationColor)
	}
}
