package types

import (
	"math"
	"testing"
)

func TestRecipKeepsZeroSign(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	inv := Vec3{0, negZero, 2}.Recip()

	if !math.IsInf(float64(inv[0]), 1) {
		t.Fatalf("expected +Inf for +0 component; got %f", inv[0])
	}
	if !math.IsInf(float64(inv[1]), -1) {
		t.Fatalf("expected -Inf for -0 component; got %f", inv[1])
	}
	if inv[2] != 0.5 {
		t.Fatalf("expected 0.5; got %f", inv[2])
	}
}

func TestMinMaxVec3(t *testing.T) {
	a := XYZ(1, -2, 3)
	b := XYZ(-1, 2, 3)

	if exp, got := XYZ(-1, -2, 3), MinVec3(a, b); exp != got {
		t.Fatalf("expected min to be %v; got %v", exp, got)
	}
	if exp, got := XYZ(1, 2, 3), MaxVec3(a, b); exp != got {
		t.Fatalf("expected max to be %v; got %v", exp, got)
	}
}

func TestNormalize(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("expected zero vector to normalize to zero; got %v", got)
	}

	n := XYZ(3, 0, 4).Normalize()
	if !n.ApproxEqual(XYZ(0.6, 0, 0.8), 1e-6) {
		t.Fatalf("expected normalized vector (0.6, 0, 0.8); got %v", n)
	}
}
