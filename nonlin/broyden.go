// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

// broydenLoop drives the quasi-Newton iteration for a square system.
//
// The Jacobian is evaluated once to seed the approximation 𝐁 and thereafter
// maintained by the Broyden rank-one secant correction
//
//	𝐁 ← 𝐁 + (𝐲 - 𝐁𝐬)𝐬ᵀ / 𝐬ᵀ𝐬    𝐬 = 𝐱ₖ₊₁ - 𝐱ₖ    𝐲 = 𝐅(𝐱ₖ₊₁) - 𝐅(𝐱ₖ)
//
// which keeps 𝐁 consistent with the latest observed secant equation while
// avoiding the dominant cost of repeated true-Jacobian evaluation. The trade
// is superlinear instead of quadratic convergence.
//
// When 𝐬ᵀ𝐬 is negligible the update is skipped for that iteration so a
// stagnating step cannot corrupt 𝐁. When 𝐁 goes numerically singular the
// approximation is reseeded from the true Jacobian once before the solve is
// abandoned, in the spirit of a bounded BFGS reset.
func (d *iterDriver) broydenLoop() (task Status) {

	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	n := spec.n

	// Seed 𝐁 = 𝐉(𝐱₀).
	if task = d.nextJacobian(task); task != iterLoop {
		return
	}

	for task == iterLoop {

		d.gradient() // g = 𝐁ᵀ𝐅
		if task = d.checkGradient(task); task != iterLoop {
			return
		}

		// Factor 𝐁 and solve 𝐁·𝚫𝐱 = -𝐅.
		dcopy(n*n, ctx.b, 1, ctx.fac, 1)
		if luFactor(n, ctx.fac, ctx.pivot) != ok {
			if ctx.reseed++; ctx.reseed > 1 {
				return HaltSingularMatrix
			}
			// Discard the degenerate approximation and reseed from 𝐉.
			if task = d.nextJacobian(task); task != iterLoop {
				return
			}
			continue
		}
		dcopy(n, loc.f, 1, ctx.d, 1)
		dscal(n, -one, ctx.d, 1)
		luSolve(n, ctx.fac, ctx.pivot, ctx.d)

		d.saveLocation()
		if task = d.searchStep(task); task != iterLoop {
			return
		}

		// Secant correction from the realized step.
		// 𝐬 = 𝐱ₖ₊₁ - 𝐱ₖ reuses the direction buffer.
		for i := 0; i < n; i++ {
			ctx.d[i] = loc.x[i] - ctx.x0[i]
		}
		ss := ddot(n, ctx.d, 1, ctx.d, 1)
		if ss > eps*eps {
			for i := 0; i < n; i++ {
				y := loc.f[i] - ctx.f0[i]
				ctx.u[i] = y - ddot(n, ctx.b[i*n:], 1, ctx.d, 1)
			}
			for i := 0; i < n; i++ {
				daxpy(n, ctx.u[i]/ss, ctx.d, 1, ctx.b[i*n:], 1)
			}
		}

		ctx.iter++
		task = d.checkConvergence(task)
	}
	return
}
