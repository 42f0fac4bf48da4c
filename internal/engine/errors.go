package engine

import "errors"

// ErrLiveSelection is returned by Graph.SelectStreams when the engine cannot
// renegotiate streams on a live graph; the selection must wait for the next
// graph build.
var ErrLiveSelection = errors.New("live stream selection unsupported")

// ErrGraphClosed is returned by graph commands issued after Close.
var ErrGraphClosed = errors.New("graph closed")
