package runtime

import "github.com/rotisserie/eris"

var (
	ErrEmptyArchive   = eris.New("archive contains no images")
	ErrMultipleImages = eris.New("archive contains more than one image")
	ErrEmptyIndex     = eris.New("image index has no manifests")
)
