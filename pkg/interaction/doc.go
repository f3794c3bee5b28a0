// Package interaction tracks what the user is pointing at.
//
// A [Machine] has three states: [Idle], [Active] (a node is selected) and
// [Dragging]. Hover is kept in a separate slot so that moving the pointer
// never changes the selection. Clicking the active node deselects it;
// clicking another node selects that node directly, without passing through
// Idle. Right clicks select the node and then either open the node editor
// or the node's article, depending on whether the user may edit.
//
// The machine also implements [style.Highlight], so a styler can read the
// active node, the hovered node and the active node's neighbors straight
// from it. The neighbor set is computed lazily and cached until the
// selection or the links change.
//
// Renderer calls made on behalf of a transition (waking the simulation on
// drag, pausing it when the engine stops) never abort the transition:
// failures and panics are logged and swallowed.
package interaction
