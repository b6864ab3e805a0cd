// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
	p5   = 0.5
	ten  = 10.0
	eps  = float64(7)/3 - float64(4)/3 - 1.
)

// Status reports how a solve terminated.
// The value is a bitmask: exactly one of the class bits
// (iterConv, iterStop, iterHalt) is set together with a reason ordinal.
type Status int

const (
	iterLoop Status = 0
	iterConv Status = 1 << (4 + iota)
	iterStop
	iterHalt
)

const (
	// ConvResidualNorm the residual ∞-norm dropped below Control.FcnTolerance.
	ConvResidualNorm = iterConv | (1 + iota)
	// ConvStepSize the relative change of the iterate dropped below Control.VarTolerance.
	ConvStepSize
	// ConvGradientNorm the merit gradient ‖𝐉ᵀ𝐅‖∞ dropped below Control.GradTolerance.
	// The iterate is a stationary point of ½‖𝐅‖₂² which need not be a root.
	ConvGradientNorm
)

const (
	// OverEvalLimit the evaluation budget Control.MaxEvaluations was exhausted
	// before any convergence test passed. The buffers hold the last attempted iterate.
	OverEvalLimit = iterStop | (1 + iota)
)

const (
	// HaltSingularMatrix the Jacobian (or its secant approximation) is numerically
	// singular and no valid step exists. The Levenberg-Marquardt solver raises
	// damping instead and reports this only when 𝛌 can no longer regularize
	// the system.
	HaltSingularMatrix = iterHalt | (1 + iota)
	// HaltBadValue a callback produced NaN or Inf.
	HaltBadValue
	// HaltEvalPanic a callback panicked.
	HaltEvalPanic
)

type errInfo int

const (
	ok errInfo = iota
	errSingular
)

type solveMethod int

const (
	methodNewton solveMethod = iota
	methodBroyden
	methodMarquardt
)

// iterSpec is the immutable description of a solve shared by all workspaces.
type iterSpec struct {
	// the number of variables
	n int
	// the number of equations, m = n except for least squares
	m int
	kind solveMethod
	stop Control
	line LineSearch
	fcn  Evaluation
	jac  Jacobian
}

// iterLoc is the current iterate: the variables and their residual.
type iterLoc struct {
	x   []float64 // n
	f   []float64 // m
	phi float64   // merit ½‖𝐅‖₂²
}

// iterCtx is the mutable per-solve state threaded through each iteration.
type iterCtx struct {
	iter   int
	numFcn int
	numJac int
	// evaluations charged against the budget
	spent int
	// quasi-Newton reseed counter
	reseed int
	// Levenberg-Marquardt damping 𝛌
	lambda float64
	// the Jacobian 𝐉 or its secant approximation 𝐁, m×n row-major
	b []float64
	// factorization working copy: n×n for LU, (m+n)×n for the damped QR
	fac []float64
	// right-hand side of the factored system
	rhs []float64 // m+n
	// search direction
	d []float64 // n
	// merit gradient 𝐉ᵀ𝐅
	g []float64 // n
	// previous iterate and residual
	x0 []float64 // n
	f0 []float64 // m
	// best residual seen by the line search
	fb []float64 // m
	// Householder pivot scalars
	h []float64 // n
	// secant update scratch 𝐲 - 𝐁𝐬
	u     []float64 // n
	pivot []int     // n
}

func (c *iterCtx) clear() {
	c.iter = 0
	c.numFcn = 0
	c.numJac = 0
	c.spent = 0
	c.reseed = 0
	c.lambda = zero
}
