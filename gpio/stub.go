//go:build !linux

package gpio

// NewCdev returns ErrNotSupported on non-linux platforms.
func NewCdev(chip string, debounceUs int) (Port, error) { return nil, ErrNotSupported }

// NewMem returns ErrNotSupported on non-linux platforms.
func NewMem() (Port, error) { return nil, ErrNotSupported }

// NewRpio returns ErrNotSupported on non-linux platforms.
func NewRpio() (Port, error) { return nil, ErrNotSupported }
