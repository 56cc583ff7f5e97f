package obj

import "errors"

// ErrInvalidModule is returned when a byte stream fails to parse as a
// valid OBJ module: bad magic or an unrecognised version.
var ErrInvalidModule = errors.New("obj: invalid module")
