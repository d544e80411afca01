package observation

import (
	"math"
	"testing"

	"github.com/ClusterCockpit/cc-lib/v2/schema"
)

func TestValueEqualUnavailableNeverEqual(t *testing.T) {
	if Unavailable.Equal(Unavailable) {
		t.Errorf("UNAVAILABLE must never equal UNAVAILABLE")
	}
	if StringValue("x").Equal(Unavailable) {
		t.Errorf("a string value must never equal UNAVAILABLE")
	}
}

func TestValueEqualNaNNeverEqual(t *testing.T) {
	nan := DoubleValue(schema.Float(math.NaN()))
	if nan.Equal(nan) {
		t.Errorf("NaN must never equal itself")
	}
}

func TestValueEqualString(t *testing.T) {
	if !StringValue("RUNNING").Equal(StringValue("RUNNING")) {
		t.Errorf("identical strings should be equal")
	}
	if StringValue("RUNNING").Equal(StringValue("STOPPED")) {
		t.Errorf("different strings should not be equal")
	}
}

func TestValueEqualDouble(t *testing.T) {
	a := DoubleValue(1.5)
	b := DoubleValue(1.5)
	c := DoubleValue(1.50000001)
	if !a.Equal(b) {
		t.Errorf("identical doubles should be equal")
	}
	if a.Equal(c) {
		t.Errorf("distinct doubles should not be equal")
	}
}

func TestValueEqualVector(t *testing.T) {
	a := VectorValue([]schema.Float{1, 2, 3})
	b := VectorValue([]schema.Float{1, 2, 3})
	c := VectorValue([]schema.Float{1, 2})
	if !a.Equal(b) {
		t.Errorf("identical vectors should be equal")
	}
	if a.Equal(c) {
		t.Errorf("vectors of differing length should not be equal")
	}
}

func TestValueEqualDataSetIgnoresOrder(t *testing.T) {
	a := DataSetValue([]DataSetEntry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}})
	b := DataSetValue([]DataSetEntry{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}})
	if !a.Equal(b) {
		t.Errorf("data sets with the same entries in different order should be equal")
	}
}

func TestValueEqualDataSetRemovedFlagMatters(t *testing.T) {
	a := DataSetValue([]DataSetEntry{{Key: "a", Value: "1"}})
	b := DataSetValue([]DataSetEntry{{Key: "a", Value: "1", Removed: true}})
	if a.Equal(b) {
		t.Errorf("a removed key should not equal a present key with the same value")
	}
}

func TestValueEqualDifferentKinds(t *testing.T) {
	if StringValue("1").Equal(Int64Value(1)) {
		t.Errorf("different value kinds should never be equal")
	}
}
