// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package units implements the compositional unit conversion table used by
// the pipeline's unit converter transform (§4.5). It is adapted from
// cc-backend's pkg/units (prefix + measure decomposition of a unit string,
// e.g. "MByte/s" -> prefix Mega, measure Bytes, denominator Seconds) but
// generalized from the metric-prefix domain to the physical-quantity domain
// named in the spec: length, mass, time, angle, temperature, rotational
// speed, and element-wise vectors of any of those.
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Measure is the physical quantity a primitive unit belongs to. Two units
// convert into one another only if their composite Measure signatures match.
type Measure int

const (
	Dimensionless Measure = iota
	Length
	Mass
	Time
	Angle
	Temperature
	RotationalSpeed
)

// primitive describes one named unit: Factor/Offset relate it to the
// measure's reference unit via reference = raw*Factor + Offset. Offset is
// only ever non-zero for Temperature units.
type primitive struct {
	measure Measure
	factor  float64
	offset  float64
}

// table maps each primitive unit name to its Measure and its factor/offset
// relative to that Measure's zero-offset, factor-1 reference unit: METER,
// KILOGRAM, SECOND, DEGREE, CELSIUS, and REVOLUTION_PER_MINUTE respectively.
var table = map[string]primitive{
	"MILLIMETER":  {Length, 0.001, 0},
	"CENTIMETER":  {Length, 0.01, 0},
	"METER":       {Length, 1, 0},
	"KILOMETER":   {Length, 1000, 0},
	"INCH":        {Length, 0.0254, 0},
	"FOOT":        {Length, 0.3048, 0},
	"MICROMETER":  {Length, 0.000001, 0},

	"MILLIGRAM": {Mass, 0.000001, 0},
	"GRAM":      {Mass, 0.001, 0},
	"KILOGRAM":  {Mass, 1, 0},
	"POUND":     {Mass, 0.45359237, 0},

	"MILLISECOND": {Time, 0.001, 0},
	"SECOND":      {Time, 1, 0},
	"MINUTE":      {Time, 60, 0},
	"HOUR":        {Time, 3600, 0},

	"DEGREE":     {Angle, 1, 0},
	"RADIAN":     {Angle, 180 / piConst, 0},
	"REVOLUTION": {Angle, 360, 0},

	"CELSIUS":    {Temperature, 1, 0},
	"FAHRENHEIT": {Temperature, 5.0 / 9.0, -32 * 5.0 / 9.0},
	"KELVIN":     {Temperature, 1, -273.15},

	"REVOLUTION_PER_MINUTE": {RotationalSpeed, 1, 0},
	"RADIAN_PER_SECOND":     {RotationalSpeed, 60 / (2 * piConst), 0},
	"DEGREE_PER_SECOND":     {RotationalSpeed, 1.0 / 6.0, 0},

	"COUNT":     {Dimensionless, 1, 0},
	"PERCENT":   {Dimensionless, 1, 0},
	"UNIT_LESS": {Dimensionless, 1, 0},
}

const piConst = 3.14159265358979323846

var (
	// ErrUnknownUnit is returned for a unit string with no entry in table.
	ErrUnknownUnit = errors.New("[UNITS]> unknown unit")
	// ErrIncompatibleUnits is returned when from/to have different composite
	// measure signatures (§7 ConversionError).
	ErrIncompatibleUnits = errors.New("[UNITS]> incompatible units")
)

// term is one '^'-exponentiated primitive unit appearing in a composite
// unit expression, e.g. "MILLIMETER^3" -> {"MILLIMETER", 3}.
type term struct {
	name string
	exp  int
}

func parseTerm(s string) (term, error) {
	name, expStr, has := strings.Cut(s, "^")
	exp := 1
	if has {
		n, err := strconv.Atoi(expStr)
		if err != nil {
			return term{}, fmt.Errorf("[UNITS]> bad exponent in %q: %w", s, err)
		}
		exp = n
	}
	return term{name: name, exp: exp}, nil
}

// composite is a fully parsed unit expression: numerator terms divided by
// denominator terms, resolved left-to-right by splitting on '/' first and
// '^' second (§4.5).
type composite struct {
	numerator   []term
	denominator []term
}

func parseComposite(expr string) (composite, error) {
	num, den, hasDen := strings.Cut(expr, "/")
	var c composite
	for _, p := range strings.Split(num, "*") {
		t, err := parseTerm(p)
		if err != nil {
			return composite{}, err
		}
		c.numerator = append(c.numerator, t)
	}
	if hasDen {
		for _, p := range strings.Split(den, "*") {
			t, err := parseTerm(p)
			if err != nil {
				return composite{}, err
			}
			c.denominator = append(c.denominator, t)
		}
	}
	return c, nil
}

// signature reports the net exponent of each Measure appearing in c, used to
// verify two composite units are convertible (§7 ConversionError).
func (c composite) signature() (map[Measure]int, error) {
	sig := map[Measure]int{}
	for _, t := range c.numerator {
		p, ok := table[t.name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, t.name)
		}
		sig[p.measure] += t.exp
	}
	for _, t := range c.denominator {
		p, ok := table[t.name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, t.name)
		}
		sig[p.measure] -= t.exp
	}
	return sig, nil
}

// isSoleTemperature reports whether c is exactly one temperature term with
// exponent 1 and no denominator -- the only shape for which the additive
// offset applies (SPEC_FULL.md Open-Question resolution: offsets compose
// only for a bare temperature unit, never inside a larger composite).
func (c composite) isSoleTemperature() (primitive, bool) {
	if len(c.denominator) != 0 || len(c.numerator) != 1 || c.numerator[0].exp != 1 {
		return primitive{}, false
	}
	p, ok := table[c.numerator[0].name]
	if !ok || p.measure != Temperature {
		return primitive{}, false
	}
	return p, true
}

// factorToReference returns the multiplicative factor converting a value
// expressed in c's unit into the reference unit of its composite measure.
// Temperature terms inside a larger composite contribute only their slope
// (factor), never their offset.
func (c composite) factorToReference() (float64, error) {
	factor := 1.0
	for _, t := range c.numerator {
		p, ok := table[t.name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownUnit, t.name)
		}
		factor *= pow(p.factor, t.exp)
	}
	for _, t := range c.denominator {
		p, ok := table[t.name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownUnit, t.name)
		}
		factor /= pow(p.factor, t.exp)
	}
	return factor, nil
}

func pow(base float64, exp int) float64 {
	neg := exp < 0
	if neg {
		exp = -exp
	}
	r := 1.0
	for i := 0; i < exp; i++ {
		r *= base
	}
	if neg {
		return 1 / r
	}
	return r
}

// Convert converts value from the "from" unit expression to the "to" unit
// expression. An empty from/to or from==to is a no-op (§4.5: "applies only
// when nativeUnits != units").
func Convert(value float64, from, to string) (float64, error) {
	if from == "" || to == "" || from == to {
		return value, nil
	}

	cf, err := parseComposite(from)
	if err != nil {
		return 0, err
	}
	ct, err := parseComposite(to)
	if err != nil {
		return 0, err
	}

	if pf, ok := cf.isSoleTemperature(); ok {
		if pt, ok2 := ct.isSoleTemperature(); ok2 {
			reference := value*pf.factor + pf.offset
			return (reference - pt.offset) / pt.factor, nil
		}
	}

	sigFrom, err := cf.signature()
	if err != nil {
		return 0, err
	}
	sigTo, err := ct.signature()
	if err != nil {
		return 0, err
	}
	if !signaturesEqual(sigFrom, sigTo) {
		return 0, ErrIncompatibleUnits
	}

	ff, err := cf.factorToReference()
	if err != nil {
		return 0, err
	}
	ft, err := ct.factorToReference()
	if err != nil {
		return 0, err
	}
	return value * ff / ft, nil
}

func signaturesEqual(a, b map[Measure]int) bool {
	for m, e := range a {
		if e != 0 && b[m] != e {
			return false
		}
	}
	for m, e := range b {
		if e != 0 && a[m] != e {
			return false
		}
	}
	return true
}

// ConvertVector applies Convert element-wise, as required for sample
// vectors and timeseries payloads (§4.5).
func ConvertVector(values []float64, from, to string) ([]float64, error) {
	if from == "" || to == "" || from == to {
		return values, nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		c, err := Convert(v, from, to)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
