package repository

import "errors"

var (
	ErrProductNotFound    = errors.New("PRODUCT_NOT_FOUND")
	ErrOutOfStock         = errors.New("OUT_OF_STOCK")
	ErrUserNotFound       = errors.New("USER_NOT_FOUND")
	ErrPaymentNotFound    = errors.New("PAYMENT_NOT_FOUND")
	ErrDuplicateReference = errors.New("DUPLICATE_REFERENCE")
	ErrSettingNotFound    = errors.New("SETTING_NOT_FOUND")
	ErrNoRowsAffected     = errors.New("NO_ROWS_AFFECTED")
)
