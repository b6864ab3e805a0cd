// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

// newtonLoop drives the damped Newton-Raphson iteration for a square system:
//
//	solve 𝐉(𝐱ₖ)·𝚫𝐱 = -𝐅(𝐱ₖ)
//	𝐱ₖ₊₁ = 𝐱ₖ + tₖ·𝚫𝐱
//
// where tₖ comes from the backtracking search on the merit ½‖𝐅‖₂². The line
// search is the globalization device: the undamped method may overshoot or
// diverge from a poor initial guess, while the damped step still converges
// quadratically near the root where t = 1 is accepted.
//
// A numerically singular Jacobian is terminal: no valid Newton step exists,
// and the last valid iterate is left in the buffers rather than retried.
func (d *iterDriver) newtonLoop() (task Status) {

	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	n := spec.n

	for task == iterLoop {

		// Evaluate 𝐉(𝐱ₖ) and the merit gradient 𝐉ᵀ𝐅.
		if task = d.nextJacobian(task); task != iterLoop {
			return
		}
		d.gradient()
		if task = d.checkGradient(task); task != iterLoop {
			return
		}

		// Factor 𝐉 and solve 𝐉·𝚫𝐱 = -𝐅.
		dcopy(n*n, ctx.b, 1, ctx.fac, 1)
		if luFactor(n, ctx.fac, ctx.pivot) != ok {
			return HaltSingularMatrix
		}
		dcopy(n, loc.f, 1, ctx.d, 1)
		dscal(n, -one, ctx.d, 1)
		luSolve(n, ctx.fac, ctx.pivot, ctx.d)

		// Damped step along 𝚫𝐱.
		d.saveLocation()
		if task = d.searchStep(task); task != iterLoop {
			return
		}

		ctx.iter++
		task = d.checkConvergence(task)
	}
	return
}
