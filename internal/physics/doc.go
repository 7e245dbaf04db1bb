// Package physics holds the numerical core of the cylinder simulation:
// the short-range repulsion and container force field, and the collision
// resolver that corrects overlaps before each integration step.
//
//   - [Params]: container geometry and physical constants
//   - [ForceField]: pairwise repulsion and soft wall forces
//   - [Resolver]: container clamping and pairwise elastic exchange
//
// Everything here is brute force O(n^2) over particle pairs and operates on
// [dynamo.State] buffers in place. Nothing in the package allocates per
// particle per step.
package physics
