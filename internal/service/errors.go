package service

import "errors"

// 业务语义错误，统一通过 errors.Is 判定。
var (
	ErrNotFound              = errors.New("record not found")
	ErrInvalidParams         = errors.New("invalid params")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserDisabled          = errors.New("user disabled")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderStatusInvalid    = errors.New("order status invalid")
	ErrInvalidCommissionBase = errors.New("commission base must not be negative")
	ErrInvalidSponsor        = errors.New("invalid sponsor")
	ErrSponsorCycle          = errors.New("sponsor assignment would create cycle")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrWithdrawalTooSmall    = errors.New("withdrawal amount below minimum")
	ErrWithdrawalInvalid     = errors.New("withdrawal not processable")
	ErrMLMConfigInvalid      = errors.New("mlm config invalid")
)
