// Package headless provides an in-memory renderer implementing the full
// render contract without drawing anything.
//
// It keeps a camera, a gesture filter, and a cooldown counter that stands in
// for the physics simulation, and it behaves like a browser graph library in
// the ways the engine has to cope with:
//
//   - link endpoints are rewritten from ids to node references on SetGraphData
//   - every camera change, programmatic or not, is echoed as a zoom event
//   - clicks recenter the camera unless the gesture filter rejects them
//   - the zoom behavior is constructed late, after mounting
//
// The explorer command and the package tests drive it. It is not safe for
// concurrent use; call it from the engine's scheduler.
package headless
