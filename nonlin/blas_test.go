// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import (
	"math"
	"testing"
)

func TestNrm2(t *testing.T) {

	if v := dnrm2(3, []float64{3, 4, 12}, 1); !almostEqual(v, 13, 1e-14) {
		t.Fatal("TestNrm2: Bad Norm")
	}

	// scaling must avoid intermediate overflow
	if v := dnrm2(2, []float64{1e300, 1e300}, 1); math.IsInf(v, 0) || !almostEqual(v, 1e300*math.Sqrt2, 1e286) {
		t.Fatal("TestNrm2: Overflow")
	}

	// strided access reads every incx-th element
	if v := dnrm2(2, []float64{3, 99, 4, 99}, 2); !almostEqual(v, 5, 1e-14) {
		t.Fatal("TestNrm2: Bad Stride")
	}
}

func TestInfNrm(t *testing.T) {
	if v := dinfnrm(3, []float64{1, -7, 3}); v != 7 {
		t.Fatal("TestInfNrm: Bad Norm")
	}
	if v := dinfnrm(0, nil); v != 0 {
		t.Fatal("TestInfNrm: Bad Empty Norm")
	}
}

func TestIdamax(t *testing.T) {
	if i := idamax(4, []float64{1, -5, 3, 2}, 1); i != 1 {
		t.Fatal("TestIdamax: Bad Index")
	}
	// column access of a row-major 3×2 matrix
	if i := idamax(3, []float64{1, 0, 2, 0, -9, 0}, 2); i != 2 {
		t.Fatal("TestIdamax: Bad Strided Index")
	}
}

func TestAxpyDot(t *testing.T) {

	x := []float64{1, 2, 3}
	y := []float64{1, 1, 1}
	daxpy(3, 2, x, 1, y, 1)
	if !almostEqual(y, []float64{3, 5, 7}, 0) {
		t.Fatal("TestAxpyDot: Bad Axpy")
	}

	if v := ddot(3, x, 1, y, 1); v != 1*3+2*5+3*7 {
		t.Fatal("TestAxpyDot: Bad Dot")
	}

	// strided dot over a matrix column
	a := []float64{1, 10, 2, 20, 3, 30}
	if v := ddot(3, a[1:], 2, x, 1); v != 10+40+90 {
		t.Fatal("TestAxpyDot: Bad Strided Dot")
	}
}
