package service

import "errors"

// Sentinel errors for service operations.
var (
	ErrTauNotRun       = errors.New("persist tau was not among the runs")
	ErrPersistDisabled = errors.New("persistence disabled")
	ErrNoSource        = errors.New("no match source configured")
	ErrNoSnapshot      = errors.New("no snapshot store configured")
)
