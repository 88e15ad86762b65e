package mot

import (
	"image"
	"math"
)

// Rectangle is an axis-aligned bounding box. (X, Y) is the top-left corner
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// NewRectXYXY creates rectangle from top-left and bottom-right corners
func NewRectXYXY(x1, y1, x2, y2 float64) Rectangle {
	return Rectangle{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Center returns center of the rectangle
func (rect Rectangle) Center() Point {
	return Point{
		X: rect.X + rect.Width/2.0,
		Y: rect.Y + rect.Height/2.0,
	}
}

// Diagonal returns length of the rectangle's diagonal
func (rect Rectangle) Diagonal() float64 {
	return math.Sqrt(rect.Width*rect.Width + rect.Height*rect.Height)
}

// Area returns area of the rectangle. Degenerated rectangles have zero area
func (rect Rectangle) Area() float64 {
	if rect.Width <= 0 || rect.Height <= 0 {
		return 0
	}
	return rect.Width * rect.Height
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// EuclideanDistance returns straight-line distance between two points
func EuclideanDistance(p1, p2 Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}
