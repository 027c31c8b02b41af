package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                     uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo                string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID                 uint           `gorm:"index;not null" json:"user_id"`                                // 下单用户ID
	ReferrerID             *uint          `gorm:"index" json:"referrer_id,omitempty"`                           // 推荐人ID（下单时快照）
	ReferrerType           string         `gorm:"index" json:"referrer_type,omitempty"`                         // 推荐人角色（下单时快照）
	Status                 string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	PaymentStatus          string         `gorm:"index;not null;default:'pending'" json:"payment_status"`       // 支付状态
	Currency               string         `gorm:"not null;default:'BRL'" json:"currency"`                       // 币种
	SubtotalAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"` // 商品小计
	ShippingAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费
	TotalAmount            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 订单金额（含运费）
	CommissionBase         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_base"` // 计佣基数（不含运费）
	PaidAt                 *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	CancelledAt            *time.Time     `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CommissionsProcessedAt *time.Time     `gorm:"index" json:"commissions_processed_at"`                        // 佣金结算完成时间（结算幂等标记）
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt              time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
