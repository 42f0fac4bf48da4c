// Package engine defines the contract between the pipelines and the media
// engine that actually demuxes, decodes, encodes, and muxes.
//
// The engine executes processing graphs on its own workers and reports back
// through an ordered, per-graph event stream. Pipelines never block on the
// engine: every state-changing call is fire-and-confirm, with the
// confirmation arriving as an event. Concrete engines live in subpackages;
// enginetest provides a scriptable fake for state-machine tests.
package engine
