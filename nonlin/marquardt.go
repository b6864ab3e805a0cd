// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import "math"

const (
	// initial damping 𝛌₀ and its control factors
	lmDampInit = 1.0e-2
	lmDampUp   = ten
	lmDampDown = 0.1
	lmDampMin  = 1.0e-12
	// the accept threshold of the gain ratio 𝝆 = actual / predicted
	lmGainMin = 1.0e-4
)

// marquardtLoop drives the Levenberg-Marquardt iteration for a least-squares
// system with m ≥ n.
//
// Each iteration solves the damped trial step
//
//	(𝐉ᵀ𝐉 + 𝛌𝐈)·𝚫𝐱 = -𝐉ᵀ𝐅
//
// through the stacked QR factorization of qrSolve, so 𝐉ᵀ𝐉 is never formed.
// The damping 𝛌 interpolates between the Gauss-Newton direction (𝛌 → 0, fast
// near the solution) and scaled steepest descent (𝛌 large, safe far away).
//
// A trial is accepted when the actual merit reduction is a sufficient fraction
// of the reduction predicted by the linear model,
//
//	𝚙𝚛𝚎𝚍 = ½(𝛌‖𝚫𝐱‖₂² - 𝐠ᵀ𝚫𝐱)
//
// in which case 𝛌 decreases; otherwise the step is rejected, 𝛌 increases and
// the iterate is restored. A rank-deficient factorization is likewise handled
// by raising 𝛌, never by reporting a singular matrix: the damped system is
// full rank for any 𝛌 > 0. Rejected trials still charge the evaluation
// budget, which bounds the retry loop.
func (d *iterDriver) marquardtLoop() (task Status) {

	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	n, m := spec.n, spec.m
	mr := m + n

	ctx.lambda = lmDampInit

	if task = d.nextJacobian(task); task != iterLoop {
		return
	}
	d.gradient()
	if task = d.checkGradient(task); task != iterLoop {
		return
	}

	for task == iterLoop {

		// Assemble the stacked system [𝐉; √𝛌𝐈]·𝚫𝐱 ≅ -[𝐅; ೦].
		dcopy(m*n, ctx.b, 1, ctx.fac, 1)
		dzero(ctx.fac[m*n : mr*n])
		sq := math.Sqrt(ctx.lambda)
		for j := 0; j < n; j++ {
			ctx.fac[(m+j)*n+j] = sq
		}
		dcopy(m, loc.f, 1, ctx.rhs, 1)
		dscal(m, -one, ctx.rhs, 1)
		dzero(ctx.rhs[m:mr])

		if qrSolve(mr, n, ctx.fac, ctx.rhs, ctx.h, ctx.d) != ok {
			// Rank-deficient Gauss-Newton system: raise the damping and retry.
			ctx.lambda = math.Max(ctx.lambda, lmDampMin) * lmDampUp
			if ctx.lambda > one/eps {
				// 𝛌 can no longer regularize the system.
				return HaltSingularMatrix
			}
			continue
		}

		// Evaluate the trial point 𝐱 + 𝚫𝐱.
		d.saveLocation()
		phi0 := loc.phi
		daxpy(n, one, ctx.d, 1, loc.x, 1)
		if task = d.nextResidual(task, loc.x, loc.f); task != iterLoop {
			if task == OverEvalLimit {
				// The trial was never evaluated: keep the iterate consistent with loc.f.
				dcopy(n, ctx.x0, 1, loc.x, 1)
			}
			return
		}
		phi := merit(loc.f)

		pred := p5 * (ctx.lambda*ddot(n, ctx.d, 1, ctx.d, 1) - ddot(n, ctx.g, 1, ctx.d, 1))
		if pred > zero && phi0-phi > lmGainMin*pred {
			// Accept: tighten toward Gauss-Newton and refresh the Jacobian.
			loc.phi = phi
			ctx.iter++
			ctx.lambda = math.Max(ctx.lambda*lmDampDown, lmDampMin)
			if task = d.checkConvergence(task); task != iterLoop {
				return
			}
			if task = d.nextJacobian(task); task != iterLoop {
				return
			}
			d.gradient()
			task = d.checkGradient(task)
		} else {
			// Reject: restore the iterate and back off toward steepest descent.
			dcopy(n, ctx.x0, 1, loc.x, 1)
			dcopy(m, ctx.f0, 1, loc.f, 1)
			ctx.lambda *= lmDampUp
		}
	}
	return
}
