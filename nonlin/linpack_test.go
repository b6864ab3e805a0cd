// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLuSolve(t *testing.T) {

	// row swaps are required to keep the elimination stable here
	a := []float64{
		2, 1, 1,
		4, -6, 0,
		-2, 7, 2,
	}
	b := []float64{5, -2, 9}

	fac := make([]float64, len(a))
	copy(fac, a)
	pivot := make([]int, 3)

	require.Equal(t, ok, luFactor(3, fac, pivot))

	x := make([]float64, len(b))
	copy(x, b)
	luSolve(3, fac, pivot, x)

	require.InDeltaSlice(t, []float64{1, 1, 2}, x, 1e-12)

	// verify 𝐀𝐱 = 𝐛 against the original matrix
	for i := 0; i < 3; i++ {
		require.InDelta(t, b[i], ddot(3, a[i*3:], 1, x, 1), 1e-12)
	}
}

func TestLuIdentityRows(t *testing.T) {

	fac := []float64{
		1, 0,
		0, 1,
	}
	pivot := make([]int, 2)
	require.Equal(t, ok, luFactor(2, fac, pivot))

	b := []float64{3, -7}
	luSolve(2, fac, pivot, b)
	require.InDeltaSlice(t, []float64{3, -7}, b, 0)
}

func TestLuSingular(t *testing.T) {

	// rank one
	fac := []float64{
		1, 2,
		2, 4,
	}
	pivot := make([]int, 2)
	require.Equal(t, errSingular, luFactor(2, fac, pivot))

	// all zero
	fac = []float64{
		0, 0,
		0, 0,
	}
	require.Equal(t, errSingular, luFactor(2, fac, pivot))

	// singular only after elimination of the first column
	fac = []float64{
		1, 1, 1,
		2, 2, 2,
		1, 2, 3,
	}
	pivot = make([]int, 3)
	require.Equal(t, errSingular, luFactor(3, fac, pivot))
}
