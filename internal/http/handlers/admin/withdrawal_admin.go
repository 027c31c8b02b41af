package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vanguard-next/internal/http/response"
	"github.com/vanguard-next/internal/repository"
	"github.com/vanguard-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListWithdrawals 管理端提现申请列表
func (h *Handler) AdminListWithdrawals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.WithdrawalListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(parsed)
		}
	}

	withdrawals, total, err := h.WalletService.ListWithdrawals(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询提现申请失败", err)
		return
	}
	response.SuccessWithPage(c, withdrawals, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// AdminReviewWithdrawalRequest 提现审核请求
type AdminReviewWithdrawalRequest struct {
	Status       string `json:"status" binding:"required"`
	RejectReason string `json:"reject_reason"`
}

// AdminReviewWithdrawal 审核提现申请
func (h *Handler) AdminReviewWithdrawal(c *gin.Context) {
	withdrawalID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	var req AdminReviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}

	withdrawal, err := h.WalletService.ReviewWithdrawal(actorID(c), withdrawalID, req.Status, req.RejectReason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "提现申请不存在", nil)
		case errors.Is(err, service.ErrWithdrawalInvalid):
			respondError(c, response.CodeBadRequest, "提现状态流转不允许", nil)
		default:
			respondError(c, response.CodeInternal, "提现审核失败", err)
		}
		return
	}
	response.Success(c, withdrawal)
}
