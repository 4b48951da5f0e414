package service

import "errors"

var (
	ErrCodeNotReady = errors.New("unique code is not ready for delivery")
)
