package httpserver

import "errors"

var (
	// ErrStart reports that the listener could not be brought up or died
	// while serving.
	ErrStart = errors.New("httpserver: server failed")
	// ErrShutdown reports that the graceful drain did not finish in time.
	ErrShutdown = errors.New("httpserver: shutdown incomplete")
)
