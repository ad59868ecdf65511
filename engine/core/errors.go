package core

import "errors"

var (
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrWindowMinimized  = errors.New("window minimized")
	ErrNotInitialized   = errors.New("subsystem not initialized")
)
