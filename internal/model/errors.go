package model

import (
	"errors"
)

var (
	ErrWorkerNotFound   = errors.New("worker not found")
	ErrWorkerInProgress = errors.New("worker in progress")
	ErrDeviceRemoved    = errors.New("device removed")
	ErrNoHardware       = errors.New("hardware backend not available")
)
