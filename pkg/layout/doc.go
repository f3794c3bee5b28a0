// Package layout assigns node coordinates under one of four policies.
//
// # Kinds
//
//   - [Force]: identity. Coordinates belong to the physics simulation.
//   - [Tree]: roots on the left, children fanned out 150 to the right.
//   - [Circle]: nodes evenly spaced on a circle around the origin.
//   - [Grid]: row-major grid with 100 pitch, centered on the origin.
//
// Static kinds write coordinates synchronously and do not animate. The
// renderer interpolates; [Manager] additionally asks it to reheat after a
// switch so the coordinate jump is noticed.
//
// # Tree Heuristics
//
// Roots are the nodes without incoming links, in node order, falling back
// to the first node. Each node is placed once: the first path reaching it
// wins and later parents are ignored. Nodes never reached keep their previous
// position, or none.
// These are heuristics, not a spanning-tree algorithm.
package layout
