package models

import "errors"

// ErrAddressNotFound is returned by geocoders when an address resolves to no coordinates.
var ErrAddressNotFound = errors.New("address not found")
