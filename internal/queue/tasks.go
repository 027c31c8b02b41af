package queue

import (
	"encoding/json"

	"github.com/vanguard-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderCommission 订单佣金结算任务
	TaskOrderCommission = constants.TaskOrderCommission
	// TaskOrderCommissionReverse 订单佣金回退任务
	TaskOrderCommissionReverse = constants.TaskOrderCommissionReverse
	// TaskCommissionNotify 佣金入账通知任务
	TaskCommissionNotify = constants.TaskCommissionNotify
	// TaskCommissionRelease 佣金解冻巡检任务
	TaskCommissionRelease = constants.TaskCommissionRelease
	// TaskQualificationCheck 经销商资格考核任务
	TaskQualificationCheck = constants.TaskQualificationCheck
)

// OrderCommissionPayload 订单佣金结算任务载荷
type OrderCommissionPayload struct {
	OrderID uint `json:"order_id"`
}

// OrderCommissionReversePayload 订单佣金回退任务载荷
type OrderCommissionReversePayload struct {
	OrderID uint `json:"order_id"`
}

// CommissionNotifyPayload 佣金入账通知任务载荷
type CommissionNotifyPayload struct {
	CommissionID uint   `json:"commission_id"`
	UserID       uint   `json:"user_id"`
	Amount       string `json:"amount"`
	Level        int    `json:"level"`
}

// CommissionReleasePayload 佣金解冻巡检任务载荷
type CommissionReleasePayload struct{}

// QualificationCheckPayload 资格考核任务载荷
type QualificationCheckPayload struct{}

// NewOrderCommissionTask 创建订单佣金结算任务
func NewOrderCommissionTask(payload OrderCommissionPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCommission, body), nil
}

// NewOrderCommissionReverseTask 创建订单佣金回退任务
func NewOrderCommissionReverseTask(payload OrderCommissionReversePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCommissionReverse, body), nil
}

// NewCommissionNotifyTask 创建佣金入账通知任务
func NewCommissionNotifyTask(payload CommissionNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionNotify, body), nil
}

// NewCommissionReleaseTask 创建佣金解冻巡检任务
func NewCommissionReleaseTask() (*asynq.Task, error) {
	body, err := json.Marshal(CommissionReleasePayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionRelease, body), nil
}

// NewQualificationCheckTask 创建资格考核任务
func NewQualificationCheckTask() (*asynq.Task, error) {
	body, err := json.Marshal(QualificationCheckPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQualificationCheck, body), nil
}
