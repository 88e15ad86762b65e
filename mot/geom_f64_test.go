package mot

import (
	"image"
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264}
	p2 := Point{X: 421, Y: 427}
	correctAnswer := 181.57367
	answer := EuclideanDistance(p1, p2)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
	}
	if EuclideanDistance(p1, p1) != 0 {
		t.Errorf("Distance to itself should be zero, got %v", EuclideanDistance(p1, p1))
	}
}

func TestRectangleCenterAndDiagonal(t *testing.T) {
	rect := NewRect(10, 20, 30, 40)
	expectedCenter := Point{X: 25, Y: 40}
	if rect.Center() != expectedCenter {
		t.Errorf("Expected center %v, got %v", expectedCenter, rect.Center())
	}
	if math.Abs(rect.Diagonal()-50.0) > eps {
		t.Errorf("Expected diagonal 50.0, got %f", rect.Diagonal())
	}
	if rect.Area() != 1200 {
		t.Errorf("Expected area 1200, got %f", rect.Area())
	}
	if NewRect(0, 0, -1, 5).Area() != 0 {
		t.Error("Degenerated rectangle should have zero area")
	}
}

func TestNewRectXYXY(t *testing.T) {
	rect := NewRectXYXY(236, -25, 386, 35)
	if rect != NewRect(236, -25, 150, 60) {
		t.Errorf("Unexpected rectangle %v", rect)
	}
	fromImage := NewRectFrom(image.Rect(1, 2, 11, 22))
	if fromImage != NewRect(1, 2, 10, 20) {
		t.Errorf("Unexpected rectangle from image.Rectangle %v", fromImage)
	}
}

func TestIoU(t *testing.T) {
	r1 := NewRect(0, 0, 10, 10)
	if math.Abs(IoU(r1, r1)-1.0) > eps {
		t.Errorf("IoU with itself should be 1.0, got %f", IoU(r1, r1))
	}
	r2 := NewRect(5, 0, 10, 10)
	// 50 / (100 + 100 - 50)
	if math.Abs(IoU(r1, r2)-1.0/3.0) > eps {
		t.Errorf("Expected IoU 0.33333, got %f", IoU(r1, r2))
	}
	r3 := NewRect(100, 100, 10, 10)
	if IoU(r1, r3) != 0 {
		t.Errorf("Expected zero IoU for disjoint rectangles, got %f", IoU(r1, r3))
	}
	if IoU(NewRect(0, 0, 0, 0), NewRect(0, 0, 0, 0)) != 0 {
		t.Error("Expected zero IoU for empty rectangles")
	}
}
