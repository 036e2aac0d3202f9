// Package api exposes the billing engine over HTTP. The surface is a plain
// read API for the four entities plus start/stop control of the background
// billing task. There is no authentication layer; the server is meant to sit
// behind an internal gateway.
package api
