// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import "math"

// luFactor (dgefa) computes the LU factorization of the n×n row-major matrix 𝐀
// by Gaussian elimination with partial pivoting:
//
//	𝐏𝐀 = 𝐋𝐔
//
// where 𝐏 is a permutation, 𝐋 is unit lower triangular and 𝐔 is upper triangular.
// On return a holds 𝐔 in its upper triangle and the elimination multipliers of 𝐋
// below the diagonal; pivot records the row interchange performed at each stage.
//
// The factorization fails with errSingular when the selected pivot is not larger
// than ε‖𝐀‖∞, so that a nearly singular system is rejected instead of producing
// an unbounded solution.
//
// J.J. Dongarra, C.B. Moler, J.R. Bunch, G.W. Stewart,
// 'LINPACK Users Guide', SIAM, 1979. Chapter 1 (DGEFA).
func luFactor(n int, a []float64, pivot []int) errInfo {

	if n <= 0 || n*n > len(a) || n > len(pivot) {
		panic("bound check error")
	}

	// ‖𝐀‖∞ = 𝚖𝚊𝚡ᵢ ∑ⱼ|𝐀ᵢⱼ|
	anorm := zero
	for i := 0; i < n; i++ {
		sum := zero
		for _, v := range a[i*n : i*n+n] {
			sum += math.Abs(v)
		}
		anorm = math.Max(anorm, sum)
	}
	tol := eps * anorm
	if tol == zero {
		return errSingular
	}

	for k := 0; k < n; k++ {
		// Select the largest remaining element of column k as pivot.
		p := k + idamax(n-k, a[k*n+k:], n)
		if math.Abs(a[p*n+k]) <= tol {
			return errSingular
		}
		pivot[k] = p
		if p != k {
			rk, rp := a[k*n:k*n+n], a[p*n:p*n+n]
			for j := range rk {
				rk[j], rp[j] = rp[j], rk[j]
			}
		}
		// Eliminate column k below the diagonal.
		rk := a[k*n : k*n+n]
		for i := k + 1; i < n; i++ {
			ri := a[i*n : i*n+n]
			t := ri[k] / rk[k]
			ri[k] = t
			daxpy(n-k-1, -t, rk[k+1:], 1, ri[k+1:], 1)
		}
	}
	return ok
}

// luSolve (dgesl) solves 𝐀𝐱 = 𝐛 using the factors computed by luFactor.
// On return b is overwritten with the solution 𝐱.
func luSolve(n int, a []float64, pivot []int, b []float64) {

	if n <= 0 || n*n > len(a) || n > len(pivot) || n > len(b) {
		panic("bound check error")
	}

	// Forward elimination: 𝐛 = 𝐋⁻¹𝐏𝐛
	for k := 0; k < n-1; k++ {
		if p := pivot[k]; p != k {
			b[k], b[p] = b[p], b[k]
		}
		daxpy(n-k-1, -b[k], a[(k+1)*n+k:], n, b[k+1:], 1)
	}

	// Back substitution: 𝐱 = 𝐔⁻¹𝐛
	for k := n - 1; k >= 0; k-- {
		b[k] = (b[k] - ddot(n-k-1, a[k*n+k+1:], 1, b[k+1:], 1)) / a[k*n+k]
	}
}
