// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates the Jacobian of a vector-valued residual function
// by finite differences. It serves as a drop-in Jacobian provider for solvers
// whose callers supply no analytic derivative.
package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference,
	// at twice the evaluation cost of Forward.
	Central
)

// Spec represents a finite-difference approximation of the m×n Jacobian of a
// residual function 𝐅 : ℝⁿ → ℝᵐ.
//
// The step size for variable i defaults to h = ±√ε·𝚖𝚊𝚡(1,|xᵢ|) for Forward and
// h = ∛ε·𝚖𝚊𝚡(1,|xᵢ|) for Central, following the truncation/roundoff trade-off
// of the respective difference order.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type Spec struct {
	N, M int
	// Residual function whose Jacobian is to be estimated.
	// The x argument is an n-vector, the result is stored into an m-vector.
	Fcn func(x, f []float64)
	// Finite difference method to use.
	Method Method
	// Relative step size overriding the default selection.
	RelStep float64
	// working buffers
	f0, f1, f2 []float64
}

// Init validates the spec and allocates the evaluation buffers.
func (s *Spec) Init() error {
	switch {
	case s.N <= 0 || s.M <= 0:
		return errors.New("dimensions must be positive")
	case s.Fcn == nil:
		return errors.New("residual function is required")
	case s.Method != Forward && s.Method != Central:
		return errors.New("unknown method")
	case s.RelStep < 0:
		return errors.New("relative step must not be negative")
	}
	s.f0 = make([]float64, s.M)
	s.f1 = make([]float64, s.M)
	if s.Method == Central {
		s.f2 = make([]float64, s.M)
	}
	return nil
}

// Cost reports the number of residual evaluations one Approx call spends.
func (s *Spec) Cost() int {
	if s.Method == Central {
		return 2 * s.N
	}
	return s.N + 1
}

// Approx fills jac with the row-major m×n Jacobian estimate at x,
// element (i,j) = ∂𝐅ᵢ/∂xⱼ at index i·n+j.
//
// The elements of x are perturbed in place during evaluation and restored
// exactly before return, so x must not be read concurrently.
func (s *Spec) Approx(x, jac []float64) {

	n, m := s.N, s.M
	if n > len(x) || m*n > len(jac) {
		panic("bound check error")
	}
	if s.f0 == nil {
		if err := s.Init(); err != nil {
			panic(err)
		}
	}

	if s.Method == Central {
		s.approxCentral(x, jac)
	} else {
		s.approxForward(x, jac)
	}
}

func (s *Spec) step(v float64) float64 {
	if s.RelStep > 0 {
		h := math.Copysign(s.RelStep, v) * math.Max(1.0, math.Abs(v))
		if (v+h)-v != 0 {
			return h
		}
	}
	e := sqrtEps
	if s.Method == Central {
		e = cubeEps
	}
	return math.Copysign(e, v) * math.Max(1.0, math.Abs(v))
}

func (s *Spec) approxForward(x, jac []float64) {
	n := s.N
	s.Fcn(x, s.f0)
	for i := 0; i < n; i++ {
		v := x[i]
		h := s.step(v)
		x[i] = v + h
		s.Fcn(x, s.f1)
		x[i] = v
		d := 1.0 / h
		for j, f0 := range s.f0 {
			jac[j*n+i] = (s.f1[j] - f0) * d
		}
	}
}

func (s *Spec) approxCentral(x, jac []float64) {
	n := s.N
	for i := 0; i < n; i++ {
		v := x[i]
		h := math.Abs(s.step(v))
		x[i] = v - h
		s.Fcn(x, s.f1)
		x[i] = v + h
		s.Fcn(x, s.f2)
		x[i] = v
		d := 1.0 / (2 * h)
		for j := range s.f1 {
			jac[j*n+i] = (s.f2[j] - s.f1[j]) * d
		}
	}
}
