// Package camera keeps zoom and pan stable across interaction-driven
// re-renders.
//
// [Controller] records the camera from every zoom event the renderer
// reports and can replay it instantly. Zoom events the renderer echoes while
// a replay is in progress are ignored.
//
// [GestureGuard] decorates the renderer's zoom gesture filter so that clicks
// and double clicks can never move the camera. Programmatic zooms (no
// event) always pass; everything else goes to the original filter, and a
// panicking filter counts as "allow". [GestureGuard.Restore] puts the
// original filter back.
//
// Renderers build their zoom behavior late. [Installer] waits for it,
// either on the renderer's ready channel or by polling a bounded number of
// times, and installs the guard once it exists.
package camera
