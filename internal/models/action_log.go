package models

import (
	"time"
)

// ActionLog 操作日志表
type ActionLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                  // 主键
	ActorID    *uint     `gorm:"index" json:"actor_id,omitempty"`       // 操作人ID（系统任务为空）
	Action     string    `gorm:"index;not null" json:"action"`          // 动作标识
	TargetType string    `gorm:"index" json:"target_type,omitempty"`    // 目标对象类型
	TargetID   *uint     `gorm:"index" json:"target_id,omitempty"`      // 目标对象ID
	DetailJSON JSON      `gorm:"type:json" json:"detail,omitempty"`     // 详情
	CreatedAt  time.Time `gorm:"index" json:"created_at"`               // 创建时间
}

// TableName 指定表名
func (ActionLog) TableName() string {
	return "action_logs"
}
