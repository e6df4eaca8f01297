package registry

import "errors"

// Registry errors.
var (
	// ErrDirectoryCreation means the cache directory could not be created.
	ErrDirectoryCreation = errors.New("couldn't create directory")
	// ErrHTTP means the listing could not be fetched.
	ErrHTTP = errors.New("http error")
	// ErrParse means cached or fetched data could not be decoded.
	ErrParse = errors.New("parse error")
	// ErrOther covers the fetch, write and decode chain of a refresh.
	ErrOther = errors.New("other error")
)
