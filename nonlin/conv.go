// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlin

import "math"

// merit computes the scalar merit function ½‖𝐅‖₂².
func merit(f []float64) float64 {
	nrm := dnrm2(len(f), f, 1)
	return p5 * nrm * nrm
}

// allFinite reports whether every element of v is a finite number.
func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// checkConvergence tests the accepted step against the residual and
// variable-change criteria, any one of which is sufficient:
//   - ‖𝐅‖∞ ≤ 𝚏𝚝𝚘𝚕
//   - 𝚖𝚊𝚡ᵢ |𝚫𝐱ᵢ| / 𝚖𝚊𝚡(|𝐱ᵢ|, 1) ≤ 𝚡𝚝𝚘𝚕
//
// The previous iterate is expected in ctx.x0.
func (d *iterDriver) checkConvergence(task Status) Status {
	if task != iterLoop {
		return task
	}
	spec, ctx, loc := &d.solver.iterSpec, &d.workspace.iterCtx, d.location

	if dinfnrm(spec.m, loc.f) <= spec.stop.FcnTolerance {
		return ConvResidualNorm
	}

	step := zero
	for i, x := range loc.x[:spec.n] {
		rel := math.Abs(x-ctx.x0[i]) / math.Max(math.Abs(x), one)
		step = math.Max(step, rel)
	}
	if step <= spec.stop.VarTolerance {
		return ConvStepSize
	}
	return task
}

// checkGradient tests the stationary-point criterion ‖𝐉ᵀ𝐅‖∞ ≤ 𝚐𝚝𝚘𝚕 against the
// gradient currently held in ctx.g. For the quasi-Newton solver the test uses
// 𝐁ᵀ𝐅, the best gradient estimate available without a true Jacobian.
func (d *iterDriver) checkGradient(task Status) Status {
	if task != iterLoop {
		return task
	}
	spec, ctx := &d.solver.iterSpec, &d.workspace.iterCtx
	if dinfnrm(spec.n, ctx.g) <= spec.stop.GradTolerance {
		return ConvGradientNorm
	}
	return task
}
