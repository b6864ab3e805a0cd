// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

// iterDriver is the main driver for iterations in a solve,
// responsible for managing the flow of the iteration process.
type iterDriver struct {
	solver    *Solver
	workspace *Workspace
	location  *iterLoc
}

// nextResidual evaluates 𝐅 at x into f, charging the evaluation budget.
// A callback panic becomes HaltEvalPanic and a non-finite residual becomes
// HaltBadValue: both are terminal, since iterating on undefined numeric
// state would propagate silently.
func (d *iterDriver) nextResidual(task Status, x, f []float64) Status {
	spec, ctx := &d.solver.iterSpec, &d.workspace.iterCtx
	if task != iterLoop {
		return task
	}
	if ctx.spent >= spec.stop.MaxEvaluations {
		return OverEvalLimit
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				task = HaltEvalPanic
			}
		}()
		spec.fcn(x, f)
	}()
	ctx.spent++
	ctx.numFcn++
	if task == iterLoop && !allFinite(f[:spec.m]) {
		task = HaltBadValue
	}
	return task
}

// nextJacobian fills ctx.b with the m×n Jacobian at the current iterate,
// either from the user callback or from the finite-difference provider
// attached to the workspace. The budget is charged with the number of
// residual evaluations the provider spends, or with one for an analytic
// Jacobian.
func (d *iterDriver) nextJacobian(task Status) Status {
	spec, w, loc := &d.solver.iterSpec, d.workspace, d.location
	ctx := &w.iterCtx
	if task != iterLoop {
		return task
	}
	cost := 1
	if w.fd != nil {
		cost = w.fd.Cost()
	}
	if ctx.spent+cost > spec.stop.MaxEvaluations {
		return OverEvalLimit
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				task = HaltEvalPanic
			}
		}()
		if w.fd != nil {
			w.fd.Approx(loc.x, ctx.b)
			ctx.numFcn += cost
		} else {
			spec.jac(loc.x, ctx.b)
		}
	}()
	ctx.spent += cost
	ctx.numJac++
	if task == iterLoop && !allFinite(ctx.b[:spec.m*spec.n]) {
		task = HaltBadValue
	}
	return task
}

// gradient computes the merit gradient ctx.g = 𝐉ᵀ𝐅 from the matrix in ctx.b.
func (d *iterDriver) gradient() {
	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	for j := 0; j < spec.n; j++ {
		ctx.g[j] = ddot(spec.m, ctx.b[j:], spec.n, loc.f, 1)
	}
}

// saveLocation stashes the current iterate before a trial step.
func (d *iterDriver) saveLocation() {
	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	dcopy(spec.n, loc.x, 1, ctx.x0, 1)
	dcopy(spec.m, loc.f, 1, ctx.f0, 1)
}

// mainLoop evaluates the initial residual, short-circuits when the starting
// point already satisfies the residual criterion, and hands control to the
// solver-specific iteration loop.
func (d *iterDriver) mainLoop() (task Status) {

	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location

	ctx.clear()

	if task = d.nextResidual(iterLoop, loc.x, loc.f); task != iterLoop {
		return
	}
	loc.phi = merit(loc.f[:spec.m])
	if dinfnrm(spec.m, loc.f) <= spec.stop.FcnTolerance {
		return ConvResidualNorm
	}

	switch spec.kind {
	case methodNewton:
		task = d.newtonLoop()
	case methodBroyden:
		task = d.broydenLoop()
	default:
		task = d.marquardtLoop()
	}
	return
}
