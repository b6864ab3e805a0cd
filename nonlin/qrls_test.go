// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQrSquare(t *testing.T) {

	a := []float64{
		2, 1, 1,
		4, -6, 0,
		-2, 7, 2,
	}
	b := []float64{5, -2, 9}

	h := make([]float64, 3)
	d := make([]float64, 3)
	require.Equal(t, ok, qrSolve(3, 3, a, b, h, d))
	require.InDeltaSlice(t, []float64{1, 1, 2}, d, 1e-12)
}

func TestQrLeastSquares(t *testing.T) {

	// fit y ≈ a + b·t through (0,1), (1,2), (2,4)
	a := []float64{
		1, 0,
		1, 1,
		1, 2,
	}
	b := []float64{1, 2, 4}

	h := make([]float64, 2)
	d := make([]float64, 2)
	require.Equal(t, ok, qrSolve(3, 2, a, b, h, d))
	require.InDeltaSlice(t, []float64{5.0 / 6.0, 1.5}, d, 1e-12)
}

func TestQrRankDeficient(t *testing.T) {

	a := []float64{
		1, 1,
		1, 1,
		1, 1,
	}
	b := []float64{1, 2, 3}

	h := make([]float64, 2)
	d := make([]float64, 2)
	require.Equal(t, errSingular, qrSolve(3, 2, a, b, h, d))
}

// The stacked factorization of [𝐉; √𝛌𝐈]𝚫𝐱 ≅ [-𝐅; ೦] must agree with the
// explicitly formed normal equations (𝐉ᵀ𝐉 + 𝛌𝐈)𝚫𝐱 = -𝐉ᵀ𝐅.
func TestQrDamped(t *testing.T) {

	const (
		m, n   = 3, 2
		lambda = 0.5
	)

	jac := []float64{
		1, 0,
		1, 1,
		1, 2,
	}
	f := []float64{-1, -2, -4}

	// stacked system
	mr := m + n
	a := make([]float64, mr*n)
	b := make([]float64, mr)
	copy(a, jac)
	sq := math.Sqrt(lambda)
	for j := 0; j < n; j++ {
		a[(m+j)*n+j] = sq
	}
	for i := 0; i < m; i++ {
		b[i] = -f[i]
	}

	h := make([]float64, n)
	d := make([]float64, n)
	require.Equal(t, ok, qrSolve(mr, n, a, b, h, d))

	// normal equations
	nrm := make([]float64, n*n)
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			nrm[i*n+j] = ddot(m, jac[i:], n, jac[j:], n)
		}
		nrm[i*n+i] += lambda
		rhs[i] = -ddot(m, jac[i:], n, f, 1)
	}

	pivot := make([]int, n)
	require.Equal(t, ok, luFactor(n, nrm, pivot))
	luSolve(n, nrm, pivot, rhs)

	require.InDeltaSlice(t, rhs, d, 1e-12)
}
