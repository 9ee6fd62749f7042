package session

import "errors"

// State errors: operations invoked against the session in the wrong
// lifecycle state.
var (
	ErrNoProjectLoaded = errors.New("session: no project loaded")
)

// Not-found errors: named distinctly from generic host errors so a
// caller can prompt the user to relocate the missing file.
var (
	ErrDatNotFound = errors.New("session: dat file not found")
	ErrSprNotFound = errors.New("session: spr file not found")
)
