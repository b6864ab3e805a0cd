// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import "math"

// daxpy performs constant times a vector plus a vector operation.
func daxpy(n int, da float64, dx []float64, incx int, dy []float64, incy int) {
	if n <= 0 || da == 0.0 {
		return
	}
	if incx == 1 && incy == 1 {
		x, y := dx[:n], dy[:n]
		for i := range x {
			y[i] += da * x[i]
		}
	} else {
		lx, ly := uint(incx*(n-1)), uint(incy*(n-1))
		if lx >= uint(len(dx)) || ly >= uint(len(dy)) {
			panic("bound check error")
		}
		ix, iy := uint(0), uint(0)
		for ix <= lx && iy <= ly {
			dy[iy] += da * dx[ix]
			ix += uint(incx)
			iy += uint(incy)
		}
	}
}

// ddot computes the dot product of two vectors.
func ddot(n int, dx []float64, incx int, dy []float64, incy int) (dot float64) {
	if n <= 0 {
		return 0.0
	}
	if incx == 1 && incy == 1 {
		x, y := dx[:n], dy[:n]
		for i := range x {
			dot += x[i] * y[i]
		}
	} else {
		lx, ly := uint(incx*(n-1)), uint(incy*(n-1))
		if lx >= uint(len(dx)) || ly >= uint(len(dy)) {
			panic("bound check error")
		}
		ix, iy := uint(0), uint(0)
		for ix <= lx && iy <= ly {
			dot += dx[ix] * dy[iy]
			ix += uint(incx)
			iy += uint(incy)
		}
	}
	return dot
}

// dcopy copies a vector, x, to a vector, y.
func dcopy(n int, dx []float64, incx int, dy []float64, incy int) {
	if n <= 0 {
		return
	}
	if incx == 1 && incy == 1 {
		copy(dy[:n], dx[:n])
	} else {
		lx, ly := uint(incx*(n-1)), uint(incy*(n-1))
		if lx >= uint(len(dx)) || ly >= uint(len(dy)) {
			panic("bound check error")
		}
		ix, iy := uint(0), uint(0)
		for ix <= lx && iy <= ly {
			dy[iy] = dx[ix]
			ix += uint(incx)
			iy += uint(incy)
		}
	}
}

// dscal scales a vector by a constant.
func dscal(n int, da float64, dx []float64, incx int) {
	if n <= 0 || incx <= 0 {
		return
	}
	if incx == 1 {
		x := dx[:n]
		for i := range x {
			x[i] *= da
		}
	} else {
		l := uint(incx * n)
		if l > uint(len(dx)) {
			panic("bound check error")
		}
		for i := uint(0); i < l; i += uint(incx) {
			dx[i] *= da
		}
	}
}

// dnrm2 computes the Euclidean norm of a vector x without overflow.
func dnrm2(n int, x []float64, incx int) float64 {
	if n < 1 || incx < 1 {
		return zero
	}

	m := uint(incx * n)
	if m > uint(len(x)) || len(x) <= 0 {
		panic("bound check error")
	}

	if n == 1 {
		return math.Abs(x[0])
	}

	scale := zero
	ssq := one
	for i := uint(0); i < m; i += uint(incx) {
		if absxi := math.Abs(x[i]); absxi > 0 {
			if scale < absxi {
				sxi := scale / absxi
				ssq = 1 + ssq*sxi*sxi
				scale = absxi
			} else {
				sxi := absxi / scale
				ssq += sxi * sxi
			}
		}
	}

	return scale * math.Sqrt(ssq)
}

// dinfnrm computes the ∞-norm 𝚖𝚊𝚡|xᵢ| of a vector x.
func dinfnrm(n int, x []float64) (nrm float64) {
	for _, v := range x[:n] {
		nrm = math.Max(nrm, math.Abs(v))
	}
	return
}

// idamax finds the index of the element having maximum absolute value.
func idamax(n int, dx []float64, incx int) (imax int) {
	if n < 1 || incx <= 0 {
		return -1
	}
	l := uint(incx * (n - 1))
	if l >= uint(len(dx)) {
		panic("bound check error")
	}
	dmax := math.Abs(dx[0])
	for i, ix := 1, uint(incx); ix <= l; i, ix = i+1, ix+uint(incx) {
		if v := math.Abs(dx[ix]); v > dmax {
			imax, dmax = i, v
		}
	}
	return
}

// dzero fills vector x with zero.
func dzero(dx []float64) {
	for i := range dx {
		dx[i] = zero
	}
}
