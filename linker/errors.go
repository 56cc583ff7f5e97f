package linker

import "errors"

// ErrUnknownRelocType is returned when a relocation carries a RelocType
// outside the five the linker knows how to apply.
var ErrUnknownRelocType = errors.New("linker: unknown relocation type")

// ErrUnknownRefTarget is returned when a reference carries a RefTarget
// outside the five the linker knows how to apply.
var ErrUnknownRefTarget = errors.New("linker: unknown reference target")
