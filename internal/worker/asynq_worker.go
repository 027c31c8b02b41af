package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/provider"
	"github.com/vanguard-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCommission, c.handleOrderCommission)
	mux.HandleFunc(queue.TaskOrderCommissionReverse, c.handleOrderCommissionReverse)
	mux.HandleFunc(queue.TaskCommissionNotify, c.handleCommissionNotify)
	mux.HandleFunc(queue.TaskCommissionRelease, c.handleCommissionRelease)
	mux.HandleFunc(queue.TaskQualificationCheck, c.handleQualificationCheck)
}

func (c *Consumer) handleOrderCommission(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_commission_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCommissionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_commission_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_commission_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if err := c.CommissionService.HandleOrderPaid(payload.OrderID); err != nil {
		logger.Warnw("worker_order_commission_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderCommissionReverse(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_commission_reverse_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCommissionReversePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_commission_reverse_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_commission_reverse_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if err := c.CommissionService.HandleOrderCancelled(payload.OrderID); err != nil {
		logger.Warnw("worker_order_commission_reverse_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCommissionNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CommissionNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_commission_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_commission_notify_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_commission_notify_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if err := c.NotificationService.NotifyCommissionCreated(payload.CommissionID, payload.UserID, payload.Amount, payload.Level); err != nil {
		logger.Warnw("worker_commission_notify_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCommissionRelease(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_release_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	released, err := c.CommissionService.RunReleaseSweep(time.Now())
	if err != nil {
		logger.Warnw("worker_commission_release_failed", "error", err)
		return err
	}
	logger.Infow("worker_commission_release_done", "released", released)
	return nil
}

func (c *Consumer) handleQualificationCheck(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_qualification_check_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	result, err := c.QualificationService.RunQualificationJob(time.Now())
	if err != nil {
		logger.Warnw("worker_qualification_check_failed", "error", err)
		return err
	}
	logger.Infow("worker_qualification_check_done",
		"evaluated", result.Evaluated,
		"qualified", result.Qualified,
		"suspended", result.Suspended,
		"cancelled", result.Cancelled,
		"volumes_reset", result.VolumesReset,
	)
	return nil
}
