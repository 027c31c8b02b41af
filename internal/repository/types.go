package repository

import "time"

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	AccessLevel *int
	SponsorID   uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionListFilter 查询佣金列表的过滤条件
type CommissionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Status      string
	Level       *int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TransactionListFilter 查询流水列表的过滤条件
type TransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WithdrawalListFilter 查询提现列表的过滤条件
type WithdrawalListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ActionLogListFilter 查询操作日志列表的过滤条件
type ActionLogListFilter struct {
	Page        int
	PageSize    int
	ActorID     uint
	Action      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
