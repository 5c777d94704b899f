package room

import "errors"

// Session errors surfaced to joining users. None of them is fatal to the
// process: a failed join leaves the caller in its pre-session state.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrRoomClosed   = errors.New("room closed")
	ErrRoomExists   = errors.New("room already exists")
)
