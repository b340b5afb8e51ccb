package source

import "errors"

// Error taxonomy shared by the CLI and HTTP boundaries. Wrap with
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrUnknownKind     = errors.New("unknown source kind")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStorage         = errors.New("storage error")
	ErrFetch           = errors.New("fetch error")
	ErrParse           = errors.New("parse error")
	ErrConfig          = errors.New("config error")
)
