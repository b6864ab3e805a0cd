// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import "math"

// Given an mr-vector v, h1 constructs the Householder vector u and pivot scalar s
// for the transformation 𝐐v ≡ y where 𝐐 = 𝐈 - b⁻¹𝐮𝐮ᵀ and b = s·uₚ.
//
// p is the pivot index and the transformation zeroes the elements from l through mr.
// On input v contains the pivot vector with storage increment iv between elements.
// On output v holds the quantities defining 𝐮; the uₚ element is returned separately.
//
// C.L. Lawson, R.J. Hanson, 'Solving least squares problems' Prentice Hall, 1974.
// (revised 1995 edition) Chapters 10.
func h1(p, l, mr int, v []float64, iv int) (up float64) {

	if p < 0 || p >= l || l >= mr {
		return
	}

	lp, l1, lm := uint(p*iv), uint(l*iv), uint((mr-1)*iv)
	if lm >= uint(len(v)) || iv <= 0 {
		panic("bound check error")
	}

	// Scale by 𝚖𝚊𝚡|vᵢ| to avoid overflow in the sum of squares.
	maxV := math.Abs(v[lp])
	for j := l1; j <= lm; j += uint(iv) {
		maxV = math.Max(math.Abs(v[j]), maxV)
	}
	if maxV <= zero {
		return
	}

	invV := one / maxV
	sumV := (v[lp] * invV) * (v[lp] * invV)
	for j := l1; j <= lm; j += uint(iv) {
		sumV += (v[j] * invV) * (v[j] * invV)
	}

	// s = -𝚜𝚐𝚗(vₚ)·(vₚ² + ∑vᵢ²)¹ᐟ²
	s := maxV * math.Sqrt(sumV)
	if v[lp] > zero {
		s = -s
	}

	up = v[lp] - s
	v[lp] = s
	return
}

// h2 applies the Householder transformation 𝐐c = c + b⁻¹(𝐮ᵀc)𝐮 built by h1 to
// ncv vectors stored in c with element increment ice and vector increment icv.
func h2(p, l, mr int, u []float64, iu int, up float64, c []float64, ice, icv, ncv int) {

	if p < 0 || p >= l || l >= mr || ncv <= 0 {
		return
	}

	b := u[p*iu] * up
	if b >= zero {
		// 𝐐 = 𝐈 when b = s·uₚ = 0
		return
	}
	b = one / b

	base := uint(ice * p)
	incr := uint(ice * (l - p))
	l1, lm := uint(l*iu), uint((mr-1)*iu)
	ln := base + uint(icv)*(uint(ncv)-1)
	if lm >= uint(len(u)) || ln >= uint(len(c)) || iu <= 0 {
		panic("bound check error")
	}

	for j := base; j <= ln; j += uint(icv) {
		c1 := j + incr
		// 𝐮ᵀc = uₚcₚ + ∑uᵢcᵢ (l ≤ i < mr)
		sm := c[j] * up
		for iv, ic := l1, c1; iv <= lm; iv, ic = iv+uint(iu), ic+uint(ice) {
			sm += c[ic] * u[iv]
		}
		if sm != zero {
			sm *= b
			c[j] += sm * up
			for iv, ic := l1, c1; iv <= lm; iv, ic = iv+uint(iu), ic+uint(ice) {
				c[ic] += sm * u[iv]
			}
		}
	}
}

// qrSolve computes the least-squares solution of the mr×n row-major system 𝐀𝐝 ≅ 𝐛
// by Householder QR factorization without column pivoting:
//
//	𝐐𝐀 = ⎡𝐑⎤    𝐐𝐛 = ⎡𝐜₁⎤    𝐑𝐝 = 𝐜₁
//	     ⎣೦⎦         ⎣𝐜₂⎦
//
// Both a and b are overwritten. The factorization fails with errSingular when a
// diagonal element of 𝐑 is not larger than ε·𝚖𝚊𝚡ⱼ|𝐑ⱼⱼ|, which signals a
// rank-deficient system rather than attempting an unstable back substitution.
//
// The damped least-squares step (𝐉ᵀ𝐉 + 𝛌𝐈)𝚫𝐱 = -𝐉ᵀ𝐅 is obtained by
// applying qrSolve to the stacked system
//
//	⎡  𝐉  ⎤ 𝚫𝐱 ≅ ⎡-𝐅⎤
//	⎣ √𝛌𝐈 ⎦      ⎣ ೦⎦
//
// which is algebraically equivalent but never forms 𝐉ᵀ𝐉, so the conditioning of
// the factored matrix is that of 𝐉 itself. With 𝛌 = 0 the solution is the plain
// Gauss-Newton step.
func qrSolve(mr, n int, a, b, h, d []float64) errInfo {

	if mr < n || n <= 0 || mr*n > len(a) || mr > len(b) || n > len(h) || n > len(d) {
		panic("bound check error")
	}

	// Triangularize [𝐀:𝐛] column by column.
	for j := 0; j < n; j++ {
		h[j] = h1(j, j+1, mr, a[j:], n)
		if j+1 < n {
			h2(j, j+1, mr, a[j:], n, h[j], a[j+1:], n, 1, n-j-1)
		}
		h2(j, j+1, mr, a[j:], n, h[j], b, 1, 1, 1)
	}

	// Pseudo-rank test on the diagonal of 𝐑.
	rmax := zero
	for j := 0; j < n; j++ {
		rmax = math.Max(rmax, math.Abs(a[j*n+j]))
	}
	tau := eps * rmax
	for j := 0; j < n; j++ {
		if math.Abs(a[j*n+j]) <= tau {
			return errSingular
		}
	}

	// Solve the triangular system 𝐑𝐝 = 𝐜₁.
	for j := n - 1; j >= 0; j-- {
		d[j] = (b[j] - ddot(n-j-1, a[j*n+j+1:], 1, d[j+1:], 1)) / a[j*n+j]
	}
	return ok
}
