// Package engine wires the graph components into one cooperative engine.
//
// Data flows one way:
//
//	source -> store -> layout -> filter -> optimizer -> renderer
//
// The interaction machine feeds the active node back into the filter and
// into styling, and the camera controller replays the viewport after every
// click so that re-rendering never makes the view jump.
//
// # Threading
//
// All engine state lives on one [scheduler.Scheduler]. Methods documented
// as scheduler-only must be called from a task running there; renderer
// events must be delivered there too. [Engine.Load] and [Engine.Mutate]
// are the exceptions: they block on the network, so they are called from
// a worker goroutine, and the store posts the resulting refresh back onto
// the scheduler. Other goroutines read engine state through [Engine.Do].
//
// # Lifecycle
//
//	e, err := engine.New(engine.Options{Source: src, Scheduler: loop, Renderer: r})
//	loop.Post(e.Start)
//	go e.Load(ctx)
//	...
//	loop.Post(e.Close)
package engine
