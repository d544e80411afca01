package units

import (
	"math"
	"testing"
)

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConvertNoopWhenSame(t *testing.T) {
	v, err := Convert(42, "MILLIMETER", "MILLIMETER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("Convert() = %v, want 42", v)
	}
}

func TestConvertLength(t *testing.T) {
	v, err := Convert(25.4, "MILLIMETER", "INCH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closeEnough(v, 1.0) {
		t.Errorf("Convert(25.4mm->in) = %v, want 1.0", v)
	}
}

func TestConvertTemperatureBare(t *testing.T) {
	v, err := Convert(100, "CELSIUS", "FAHRENHEIT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closeEnough(v, 212) {
		t.Errorf("Convert(100C->F) = %v, want 212", v)
	}

	v, err = Convert(32, "FAHRENHEIT", "CELSIUS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closeEnough(v, 0) {
		t.Errorf("Convert(32F->C) = %v, want 0", v)
	}
}

func TestConvertTemperatureInComposite(t *testing.T) {
	// Inside a composite unit, only the slope applies -- no +32/-32 offset.
	v, err := Convert(9, "CELSIUS/SECOND", "FAHRENHEIT/SECOND")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 9 * 1.8
	if !closeEnough(v, want) {
		t.Errorf("Convert(9 C/s -> F/s) = %v, want %v", v, want)
	}
}

func TestConvertIncompatibleMeasures(t *testing.T) {
	if _, err := Convert(1, "MILLIMETER", "SECOND"); err != ErrIncompatibleUnits {
		t.Fatalf("expected ErrIncompatibleUnits, got %v", err)
	}
}

func TestConvertUnknownUnit(t *testing.T) {
	if _, err := Convert(1, "FOOBAR", "METER"); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
}

func TestConvertVectorElementwise(t *testing.T) {
	out, err := ConvertVector([]float64{0, 25.4, 50.8}, "MILLIMETER", "INCH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 1, 2}
	for i := range want {
		if !closeEnough(out[i], want[i]) {
			t.Errorf("ConvertVector()[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestConvertRotationalSpeed(t *testing.T) {
	// 60 revolutions/minute == 2*pi radians/second
	v, err := Convert(60, "REVOLUTION_PER_MINUTE", "RADIAN_PER_SECOND")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closeEnough(v, 2*piConst) {
		t.Errorf("Convert(60 rpm -> rad/s) = %v, want %v", v, 2*piConst)
	}
}
