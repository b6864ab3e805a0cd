// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import "math"

const (
	// safeguard interval for the quadratic contraction: t ∈ [𝜸₁t, 𝜸₂t]
	searchContractLow = 0.1
	searchContractUp  = 0.5
)

// searchStep performs a backtracking line search along ctx.d from the iterate
// saved in ctx.x0/ctx.f0, writing the accepted point into the location.
//
// Starting from the full step t = 1 (capped so that ‖t𝐝‖ does not exceed
// StepScale·𝚖𝚊𝚡(1, ‖𝐱‖)), the step is contracted until the Armijo condition
//
//	𝞿(t) ≤ 𝞿(0) + ɑ·t·𝞿′(0)    𝞿(t) = ½‖𝐅(𝐱 + t𝐝)‖₂²
//
// holds. Each contraction minimizes the quadratic model through 𝞿(0), 𝞿′(0)
// and 𝞿(t), safeguarded into [𝜸₁t, 𝜸₂t] so a degenerate model cannot stall
// the search or collapse it to zero.
//
// When the sub-iteration budget is exhausted the best point evaluated so far
// is kept instead of failing: the outer convergence tests decide whether the
// reduced-confidence step is good enough. A non-descent direction (𝞿′(0) ≥ 0,
// possible under a secant Jacobian approximation) degenerates to a single
// full-step evaluation.
func (d *iterDriver) searchStep(task Status) Status {
	if task != iterLoop {
		return task
	}

	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	n := spec.n
	ls := spec.line

	phi0 := loc.phi
	slope := ddot(n, ctx.g, 1, ctx.d, 1) // 𝞿′(0) = (𝐉ᵀ𝐅)ᵀ𝐝

	// Cap the initial step length.
	t := one
	if dn := dnrm2(n, ctx.d, 1); dn > zero {
		if tmax := ls.StepScale * math.Max(one, dnrm2(n, ctx.x0, 1)) / dn; tmax < one {
			t = tmax
		}
	}

	sub := ls.MaxIterations
	if slope >= zero {
		sub = 1
	}

	bestT, bestPhi := zero, math.Inf(1)
	for k := 0; k < sub; k++ {
		// 𝐱 = 𝐱₀ + t𝐝
		for i := 0; i < n; i++ {
			loc.x[i] = ctx.x0[i] + t*ctx.d[i]
		}
		if task = d.nextResidual(task, loc.x, loc.f); task != iterLoop {
			if task == OverEvalLimit {
				if bestPhi < math.Inf(1) {
					d.restoreBest(bestT)
					loc.phi = bestPhi
				} else {
					// No trial was evaluated: keep the iterate consistent with loc.f.
					dcopy(n, ctx.x0, 1, loc.x, 1)
				}
			}
			return task
		}
		phi := merit(loc.f)
		if phi <= phi0+ls.Decrease*t*slope || slope >= zero {
			loc.phi = phi
			return task
		}
		if phi < bestPhi {
			bestT, bestPhi = t, phi
			dcopy(spec.m, loc.f, 1, ctx.fb, 1)
		}
		// Minimizer of the quadratic through 𝞿(0), 𝞿′(0), 𝞿(t).
		tq := -slope * t * t / (two * (phi - phi0 - slope*t))
		t = math.Min(math.Max(tq, searchContractLow*t), searchContractUp*t)
	}

	// Sub-iteration budget exhausted: keep the best point found.
	d.restoreBest(bestT)
	loc.phi = bestPhi
	return task
}

// restoreBest rebuilds the trial point for step length t and restores the
// residual stashed by searchStep.
func (d *iterDriver) restoreBest(t float64) {
	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location
	for i := 0; i < spec.n; i++ {
		loc.x[i] = ctx.x0[i] + t*ctx.d[i]
	}
	dcopy(spec.m, ctx.fb, 1, loc.f, 1)
}
