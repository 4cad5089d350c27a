// Package result decodes Dymola-format simulation and linearization
// results into typed records.
//
// The package sits on top of [matfile] and exposes the two result kinds a
// file can hold:
//
//   - [LoadTrajectory]: named variables with shared time bases
//   - [LoadLinearSystem]: a state-space system (A, B, C, D plus names)
//   - [Classify]: result kind and format version of a raw matrix set
//
// # Shared storage
//
// Variables that are sampled on the same clock share one [Block]; a
// [Variable] only holds its column index and a negation flag, so reading a
// sign-inverted variable never duplicates the block:
//
//	traj, err := result.LoadTrajectory("dsres.mat", false)
//	v, _ := traj.Variable("body.v")
//	values := v.Values() // negation applied here, on a fresh slice
//
// # Fault tolerance
//
// A unit string one variable fails to parse never aborts the load: the
// variable is admitted with unit "1" and the problem is recorded in
// [Trajectory.Warnings].
package result
