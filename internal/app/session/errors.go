package session

import "errors"

// The session surfaces every failure to its caller; these sentinels let the
// caller tell the phases apart with errors.Is. Only the insufficient-data
// case during a drain is recovered locally and never reaches the caller.
var (
	ErrDiscovery        = errors.New("device discovery failed")
	ErrConnect          = errors.New("device connection failed")
	ErrConfigure        = errors.New("device configuration failed")
	ErrPurge            = errors.New("purge failed")
	ErrStatus           = errors.New("status poll failed")
	ErrReadDisconnected = errors.New("device disconnected during read")
	ErrDisconnect       = errors.New("device disconnection failed")
)
