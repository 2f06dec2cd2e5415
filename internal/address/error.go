package address

import "errors"

var (
	ErrNoAddress       = errors.New("no delivery address saved")
	ErrNoLocation      = errors.New("no location cached")
	ErrLocationExpired = errors.New("cached location expired")
)
