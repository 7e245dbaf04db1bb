// Package analysis provides post-run tools for particle simulations.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectra of recorded metric series
//   - [Divergence]: growth of the separation between two runs started a
//     small perturbation apart
//   - [Sweep]: parameter sweep recording final metric values
//   - [NewHistogram]: particle distributions (height, radius) with a text
//     rendering
//
// # Sensitivity
//
// A positive divergence exponent means nearby initial states separate
// exponentially:
//
//	res, err := analysis.Divergence(ctx, params, initial, integ, 2000, 1e-6)
//	if err == nil && res.Exponent > 0 {
//	    // trajectories diverge
//	}
package analysis
