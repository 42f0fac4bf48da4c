// Package pipeline drives media engine graphs through three workflows:
// interactive playback, chapter-aware re-muxing (TOC setting), and
// per-chapter stream splitting.
//
// Each pipeline wraps one engine graph and a small deterministic state
// machine fed by the graph's ordered event stream. Commands never block the
// caller: state-changing requests are issued to the engine and confirmed by
// a later event. A command arriving while a previous transition is still
// pending is rejected with mediaerr.ErrBusy, never silently dropped. Stale
// confirmations are informational and can never move the machine backward.
// Once a pipeline reaches Failed, Cancelled, or Completed it only accepts
// Close.
//
// The three flavors share the core machine by composition: the core owns the
// generic lifecycle and each flavor contributes its graph topology and extra
// commands.
package pipeline
