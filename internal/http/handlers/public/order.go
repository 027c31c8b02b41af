package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vanguard-next/internal/http/response"
	"github.com/vanguard-next/internal/repository"
	"github.com/vanguard-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateOrderItemRequest 下单商品项
type CreateOrderItemRequest struct {
	ProductName string `json:"product_name" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID         uint                     `json:"user_id" binding:"required"`
	ReferralCode   string                   `json:"referral_code"`
	ShippingAmount string                   `json:"shipping_amount"`
	Items          []CreateOrderItemRequest `json:"items" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}

	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		price, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			respondError(c, response.CodeBadRequest, "商品单价格式错误", err)
			return
		}
		items = append(items, service.CreateOrderItemInput{
			ProductName: item.ProductName,
			UnitPrice:   price,
			Quantity:    item.Quantity,
		})
	}

	shipping := decimal.Zero
	if raw := strings.TrimSpace(req.ShippingAmount); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "运费格式错误", err)
			return
		}
		shipping = parsed
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:         req.UserID,
		ReferralCode:   req.ReferralCode,
		ShippingAmount: shipping,
		Items:          items,
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "创建订单失败")
		return
	}
	response.Success(c, order)
}

// GetOrder 查询订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询订单失败", err)
		return
	}
	response.Success(c, order)
}

// ListOrders 查询订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   status,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询订单失败", err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
