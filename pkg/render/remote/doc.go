// Package remote drives a browser canvas over a websocket.
//
// The browser runs the force simulation and draws; the [Renderer] is its
// server-side stand-in. It implements the whole [render] contract by
// sending commands to every connected client and mirroring the viewport
// the clients report back.
//
// All renderer methods must be called on the engine scheduler. Client
// messages arrive on connection goroutines and are posted to that
// scheduler before they touch any state, so [render.Events] callbacks
// always run on it too.
//
// # Protocol
//
// Messages are JSON text frames. The server sends [Command] values:
// "hello", "graph", "style", "pause", "resume", "reheat", "zoom", "center"
// and "filter". Clients send [Message] values: "ready", "resize", "zoom",
// "click", "hover", "drag", "dragend", "rightclick" and "stop".
//
// A client's "ready" constructs the zoom behavior. Its gesture filter runs
// on the server; whenever it changes, clients receive a "filter" command
// listing the gesture types it blocks.
package remote
