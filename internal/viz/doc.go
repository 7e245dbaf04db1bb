// Package viz renders a running particle simulation in the terminal.
//
// The live view uses Bubble Tea:
//
//   - [Model]: particles and the container wireframe on a braille [Canvas],
//     seen through an orbiting [Camera], next to live metrics
//   - [Menu]: preset picker shown before the live view
//   - Themes selectable with T
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial particles
//	Tab   - Select a parameter, Up/Down to tune it
//	←→ WS - Orbit the camera, +/- to zoom
//	?     - Show help overlay
package viz
