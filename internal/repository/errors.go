package repository

import "errors"

var (
	ErrAssetNotFound    = errors.New("asset type not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTreasuryNotFound = errors.New("treasury user not found")
)
