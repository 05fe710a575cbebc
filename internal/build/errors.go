package build

import "github.com/rotisserie/eris"

var (
	ErrCommandFailed    = eris.New("command failed")
	ErrNoArtifact       = eris.New("no package artifact produced")
	ErrTooManyArtifacts = eris.New("more than one package artifact produced")
)
