package target

import "github.com/rotisserie/eris"

var (
	ErrNotFound = eris.New("target not found")
	ErrInvalid  = eris.New("invalid target manifest")
)
