// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nonlin solves systems of nonlinear algebraic equations and nonlinear
// least-squares problems by iterative methods: a damped Newton-Raphson solver,
// a Broyden quasi-Newton solver and a Levenberg-Marquardt least-squares solver.
//
// Given a residual 𝐅 : ℝⁿ → ℝᵐ (and optionally its Jacobian), the solvers find
// 𝐱 with 𝐅(𝐱) ≈ 0 for square systems (m = n), or 𝐱 minimizing ‖𝐅(𝐱)‖₂² for
// overdetermined systems (m ≥ n). When no Jacobian callback is supplied, a
// finite-difference estimate from the numdiff package is used instead.
package nonlin

import (
	"errors"

	"github.com/curioloop/nonlineq/numdiff"
)

// Evaluation computes the m-vector residual 𝐅(𝐱) into f.
// It must be a pure function of x, safe to call repeatedly; any state the
// caller needs to thread through should be captured by the closure.
type Evaluation func(x, f []float64)

// Jacobian computes the m×n Jacobian matrix 𝐉(𝐱) into jac in row-major order:
// element (i,j) = ∂𝐅ᵢ/∂𝐱ⱼ is stored at index i·n+j.
type Jacobian func(x, jac []float64)

// Control specifies the stopping criteria shared by all solvers.
type Control struct {
	// The hard cap on residual and Jacobian evaluations. A finite-difference
	// Jacobian charges the residual evaluations it spends.
	MaxEvaluations int
	// The iteration converges when ‖𝐅‖∞ ≤ FcnTolerance.
	FcnTolerance float64
	// The iteration converges when 𝚖𝚊𝚡ᵢ |𝚫𝐱ᵢ|/𝚖𝚊𝚡(|𝐱ᵢ|,1) ≤ VarTolerance.
	VarTolerance float64
	// The iteration converges when ‖𝐉ᵀ𝐅‖∞ ≤ GradTolerance, detecting a
	// stationary point of the merit function (a local minimum for least squares).
	GradTolerance float64
}

// DefaultControl returns the standard stopping criteria:
// 100 evaluations, ‖𝐅‖∞ ≤ 1e-8, step ≤ 1e-12, gradient ≤ 1e-12.
func DefaultControl() Control {
	return Control{
		MaxEvaluations: 100,
		FcnTolerance:   1.0e-8,
		VarTolerance:   1.0e-12,
		GradTolerance:  1.0e-12,
	}
}

// LineSearch specifies the backtracking search used to globalize the Newton
// solver.
type LineSearch struct {
	// The maximum number of step contractions per iteration. When exhausted
	// the best point found is kept rather than reported as an error.
	MaxIterations int
	// The sufficient-decrease (Armijo) coefficient, 0 < Decrease < 1.
	Decrease float64
	// The maximum step-length multiplier: the trial step never exceeds
	// StepScale·𝚖𝚊𝚡(1, ‖𝐱‖₂) in norm.
	StepScale float64
}

// DefaultLineSearch returns the standard search controls.
func DefaultLineSearch() LineSearch {
	return LineSearch{
		MaxIterations: 20,
		Decrease:      1.0e-4,
		StepScale:     1.0e3,
	}
}

// Problem specifies a nonlinear system to solve.
type Problem struct {
	N    int         // The number of variables
	M    int         // The number of equations (m = n for square systems)
	Fcn  Evaluation  // Residual function
	Jac  Jacobian    // Optional Jacobian; finite differences are used when nil
	Stop Control     // Stop condition
	Line *LineSearch // Optional line-search controls (Newton only)
}

// Newton creates a damped Newton-Raphson solver for a square system.
func (p *Problem) Newton() (*Solver, error) {
	return p.build(methodNewton)
}

// QuasiNewton creates a Broyden quasi-Newton solver for a square system.
// The true Jacobian is evaluated only to seed the secant approximation.
func (p *Problem) QuasiNewton() (*Solver, error) {
	return p.build(methodBroyden)
}

// LeastSquares creates a Levenberg-Marquardt solver for an m ≥ n system.
func (p *Problem) LeastSquares() (*Solver, error) {
	return p.build(methodMarquardt)
}

func (p *Problem) build(kind solveMethod) (solver *Solver, err error) {

	n, m := p.N, p.M
	if m == 0 {
		m = n
	}

	line := DefaultLineSearch()
	if kind == methodNewton && p.Line != nil {
		line = *p.Line
	}

	stop := p.Stop

	switch {
	case n <= 0:
		err = errors.New("problem dimension must greater than 0")
	case kind != methodMarquardt && m != n:
		err = errors.New("system must be square")
	case kind == methodMarquardt && m < n:
		err = errors.New("equation number must not less than n")
	case p.Fcn == nil:
		err = errors.New("residual function is required")
	case stop.MaxEvaluations <= 0:
		err = errors.New("evaluation budget must greater than 0")
	case stop.FcnTolerance <= zero:
		err = errors.New("function tolerance must greater than 0")
	case stop.VarTolerance <= zero:
		err = errors.New("variable tolerance must greater than 0")
	case stop.GradTolerance <= zero:
		err = errors.New("gradient tolerance must greater than 0")
	case line.MaxIterations <= 0:
		err = errors.New("line search iteration must greater than 0")
	case line.Decrease <= zero || line.Decrease >= one:
		err = errors.New("line search decrease must lie in (0,1)")
	case line.StepScale <= zero:
		err = errors.New("line search step scale must greater than 0")
	}
	if err != nil {
		return
	}

	solver = &Solver{
		iterSpec{
			n: n, m: m,
			kind: kind,
			stop: stop,
			line: line,
			fcn:  p.Fcn,
			jac:  p.Jac,
		},
	}
	return
}

// Solver holds the immutable description of a solve.
// One solver may be shared by concurrent goroutines as long as each supplies
// its own workspace and buffers.
type Solver struct {
	iterSpec
}

// Workspace contains the per-solve state and scratch buffers.
// Given n variables and m equations the total work space is approximately
// float64[2mn + n² + 3m + 6n].
type Workspace struct {
	n, m int
	iterCtx
	// per-workspace finite-difference provider when no Jacobian is supplied
	fd *numdiff.Spec
}

// Result contains the final result of a solve.
type Result struct {
	OK      bool      // Whether the iteration converged.
	X       []float64 // Final iterate (aliases the buffer passed to Solve).
	F       []float64 // Final residual.
	Summary           // Iteration behavior.
}

// Summary records how the iteration behaved.
type Summary struct {
	Status Status // Final status after solving.
	NumIter int   // Number of accepted iterations.
	NumFcn  int   // Number of residual evaluations.
	NumJac  int   // Number of Jacobian evaluations.
}

// Init allocates the workspace for a solve.
// To avoid race conditions, separate workspaces need to be created for each
// goroutine, but multiple workspaces could share one solver.
func (s *Solver) Init() *Workspace {
	w := new(Workspace)
	w.n, w.m = s.n, s.m

	n, m, mr := s.n, s.m, s.m+s.n
	totwk := m*n + mr*n + mr + 2*m + 5*n
	wrk := make([]float64, totwk)

	ib := 0
	ifc := ib + m*n
	ir := ifc + mr*n
	id := ir + mr
	ig := id + n
	ix := ig + n
	if0 := ix + n
	ifb := if0 + m
	ih := ifb + m
	iu := ih + n

	w.iterCtx = iterCtx{
		b:     wrk[ib:ifc],
		fac:   wrk[ifc:ir],
		rhs:   wrk[ir:id],
		d:     wrk[id:ig],
		g:     wrk[ig:ix],
		x0:    wrk[ix:if0],
		f0:    wrk[if0:ifb],
		fb:    wrk[ifb:ih],
		h:     wrk[ih:iu],
		u:     wrk[iu : iu+n],
		pivot: make([]int, n),
	}

	if s.jac == nil {
		w.fd = &numdiff.Spec{N: n, M: m, Fcn: s.fcn, Method: numdiff.Forward}
		if err := w.fd.Init(); err != nil {
			panic(err)
		}
	}
	return w
}

// Solve runs the iteration from the initial guess x using workspace w.
//
// x is mutated in place: on return it holds the final iterate, or the last
// attempted one when the solve fails, so the caller can always inspect where
// solving stopped. The matching residual is available through Result.F.
func (s *Solver) Solve(x []float64, w *Workspace) *Result {

	if len(x) != s.n {
		panic("initial x dimension not match spec")
	}

	if w.n != s.n || w.m != s.m {
		panic("workspace dimension not match spec")
	}

	loc := iterLoc{
		x: x,
		f: make([]float64, s.m),
	}

	driver := iterDriver{
		solver:    s,
		workspace: w,
		location:  &loc,
	}

	res := driver.mainLoop()
	return &Result{
		OK: res&iterConv > 0,
		X:  loc.x, F: loc.f,
		Summary: Summary{
			Status:  res,
			NumIter: w.iter,
			NumFcn:  w.numFcn,
			NumJac:  w.numJac,
		},
	}
}
