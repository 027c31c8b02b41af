package constants

// 用户访问级别常量（数值越小权限越高）
const (
	AccessLevelTechnicalAdmin = 0
	AccessLevelGeneralAdmin   = 1
	AccessLevelSupervisor     = 2
	AccessLevelLeader         = 3
	AccessLevelReseller       = 4
	AccessLevelClient         = 5
	AccessLevelAmbassador     = 6
)

// 角色标签常量（下单时快照到订单）
const (
	RoleTechnicalAdmin = "technical_admin"
	RoleGeneralAdmin   = "general_admin"
	RoleSupervisor     = "supervisor"
	RoleLeader         = "leader"
	RoleReseller       = "reseller"
	RoleClient         = "client"
	RoleAmbassador     = "ambassador"
)

// 用户状态常量
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusCancelled = "cancelled"
)

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// 佣金状态常量
const (
	CommissionStatusBlocked   = "blocked"
	CommissionStatusAvailable = "available"
	CommissionStatusReversed  = "reversed"
)

// 流水类型常量
const (
	TxnTypeCommissionReleased = "commission_released"
	TxnTypeCommissionReversed = "commission_reversed"
	TxnTypeWithdrawalRequest  = "withdrawal_request"
	TxnTypeWithdrawalRefund   = "withdrawal_refund"
)

// 提现状态常量
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusPaid     = "paid"
	WithdrawalStatusRejected = "rejected"
)

// 操作日志动作常量
const (
	ActionOrderStatusUpdated    = "order_status_updated"
	ActionCommissionsReleased   = "commissions_released"
	ActionCommissionsReversed   = "commissions_reversed"
	ActionQualificationsChecked = "qualifications_checked"
	ActionWithdrawalUpdated     = "withdrawal_updated"
	ActionUserConverted         = "user_converted"
	ActionAmbassadorRateUpdated = "ambassador_rate_updated"
	ActionSettingsUpdated       = "settings_updated"
)

// 设置键常量
const (
	SettingKeyMLMConfig = "mlm_config"
)

// 异步任务类型常量
const (
	TaskOrderCommission        = "order:commission"
	TaskOrderCommissionReverse = "order:commission_reverse"
	TaskCommissionNotify       = "commission:notify"
	TaskCommissionRelease      = "commission:release"
	TaskQualificationCheck     = "qualification:check"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 佣金链路常量
const (
	// CommissionChainMaxDepth 多级佣金最大层级
	CommissionChainMaxDepth = 3
	// CancellationGraceDays 订单取消佣金回退窗口（自然日）
	CancellationGraceDays = 7
	// InactivityMonthDays 资格考核按 30 天折算一个月
	InactivityMonthDays = 30
)
