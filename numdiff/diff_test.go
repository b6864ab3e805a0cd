// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"reflect"
	"testing"
)

func fcnV2(x, f []float64) {
	f[0] = x[0] * math.Sin(x[1])
	f[1] = x[1] * math.Cos(x[0])
	f[2] = math.Pow(x[0], 3) * math.Pow(x[1], -0.5)
}

func jacV2(x []float64) []float64 {
	return []float64{
		math.Sin(x[1]), x[0] * math.Cos(x[1]),
		-x[1] * math.Sin(x[0]), math.Cos(x[0]),
		3 * math.Pow(x[0], 2) * math.Pow(x[1], -0.5), -0.5 * math.Pow(x[0], 3) * math.Pow(x[1], -1.5),
	}
}

func TestForward(t *testing.T) {

	x0 := []float64{-100.0, 0.2}
	jac0 := jacV2(x0)
	jac := make([]float64, 6)

	s := Spec{N: 2, M: 3, Fcn: fcnV2, Method: Forward}
	if err := s.Init(); err != nil {
		t.Fatal("TestForward: Bad Spec", err)
	}
	s.Approx(x0, jac)

	if !relativeEqual(jac, jac0, 1e-5) {
		t.Fatal("TestForward: Bad Jacobian")
	}
	if !relativeEqual(x0, []float64{-100.0, 0.2}, 0) {
		t.Fatal("TestForward: Point Not Restored")
	}
	if s.Cost() != 3 {
		t.Fatal("TestForward: Bad Cost")
	}
}

func TestCentral(t *testing.T) {

	x0 := []float64{-100.0, 0.2}
	jac0 := jacV2(x0)
	jac := make([]float64, 6)

	s := Spec{N: 2, M: 3, Fcn: fcnV2, Method: Central}
	if err := s.Init(); err != nil {
		t.Fatal("TestCentral: Bad Spec", err)
	}
	s.Approx(x0, jac)

	if !relativeEqual(jac, jac0, 1e-6) {
		t.Fatal("TestCentral: Bad Jacobian")
	}
	if s.Cost() != 4 {
		t.Fatal("TestCentral: Bad Cost")
	}
}

func TestRelStep(t *testing.T) {

	x0 := []float64{-100.0, 0.2}
	jac0 := jacV2(x0)
	jac := make([]float64, 6)

	s := Spec{N: 2, M: 3, Fcn: fcnV2, Method: Forward, RelStep: 1e-4}
	s.Approx(x0, jac) // lazy init

	if !relativeEqual(jac, jac0, 1e-2) {
		t.Fatal("TestRelStep: Bad Jacobian")
	}

	s = Spec{N: 2, M: 3, Fcn: fcnV2, Method: Central, RelStep: 1e-4}
	s.Approx(x0, jac)

	if !relativeEqual(jac, jac0, 1e-4) {
		t.Fatal("TestRelStep: Bad Jacobian")
	}
}

func TestBadSpec(t *testing.T) {

	fcn := func(x, f []float64) { f[0] = x[0] }

	tests := []Spec{
		{N: 0, M: 1, Fcn: fcn},
		{N: 1, M: 0, Fcn: fcn},
		{N: 1, M: 1, Fcn: nil},
		{N: 1, M: 1, Fcn: fcn, Method: Method(7)},
		{N: 1, M: 1, Fcn: fcn, RelStep: -1},
	}

	for i, tt := range tests {
		if err := tt.Init(); err == nil {
			t.Fatal("TestBadSpec: Invalid Spec Accepted", i)
		}
	}
}

func relativeEqual[T float64 | []float64](a, b T, tol float64) bool {
	equalWithinRel := func(a, b float64) bool {
		if a == b {
			return true
		}
		delta := math.Abs(a - b)
		return delta/math.Max(math.Abs(a), math.Abs(b)) <= tol
	}
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Float64:
		return equalWithinRel(any(a).(float64), any(b).(float64))
	case reflect.Slice:
		a, b := any(a).([]float64), any(b).([]float64)
		if len(a) != len(b) {
			return false
		}
		for i, a := range a {
			if !equalWithinRel(a, b[i]) {
				return false
			}
		}
		return true
	default:
		panic("unknown type")
	}
}
