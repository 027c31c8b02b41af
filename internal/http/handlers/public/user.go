package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vanguard-next/internal/http/response"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/repository"
	"github.com/vanguard-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterUserRequest 注册请求
type RegisterUserRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	AccessLevel int    `json:"access_level"`
	SponsorCode string `json:"sponsor_code"`
}

// RegisterUser 注册用户
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}

	user, err := h.NetworkService.RegisterUser(service.RegisterUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		AccessLevel: req.AccessLevel,
		SponsorCode: req.SponsorCode,
	})
	if err != nil {
		respondWithMappedError(c, err, registerErrorRules, response.CodeInternal, "注册失败")
		return
	}
	response.Success(c, user)
}

// GetUser 查询用户
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "查询用户失败", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "用户不存在", nil)
		return
	}
	response.Success(c, user)
}

// GetNetworkTree 查询用户推荐网络
func (h *Handler) GetNetworkTree(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	tree, err := h.NetworkService.GetNetworkTree(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询推荐网络失败", err)
		return
	}
	response.Success(c, tree)
}

// GetUserUpline 查询用户的上级链（最多三层）
func (h *Handler) GetUserUpline(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	upline, err := h.NetworkService.GetUpline(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询上级链失败", err)
		return
	}
	response.Success(c, upline)
}

// GetNetworkStats 查询用户推荐网络统计
func (h *Handler) GetNetworkStats(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	stats, err := h.NetworkService.GetNetworkStats(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询网络统计失败", err)
		return
	}
	response.Success(c, stats)
}

// GetUserCommissions 查询用户佣金列表
func (h *Handler) GetUserCommissions(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	commissions, total, err := h.CommissionService.ListUserCommissions(userID, page, pageSize, status)
	if err != nil {
		respondError(c, response.CodeInternal, "查询佣金失败", err)
		return
	}
	response.SuccessWithPage(c, commissions, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetUserCommissionSummary 查询用户佣金概览
func (h *Handler) GetUserCommissionSummary(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	summary, err := h.CommissionService.GetUserCommissionSummary(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询佣金概览失败", err)
		return
	}
	response.Success(c, summary)
}

// GetWallet 查询用户余额概览
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	summary, err := h.WalletService.GetBalanceSummary(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询余额失败", err)
		return
	}
	response.Success(c, summary)
}

// GetWalletTransactions 查询用户账变流水
func (h *Handler) GetWalletTransactions(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	txnType := strings.TrimSpace(c.Query("type"))

	transactions, total, err := h.WalletService.ListUserTransactions(userID, repository.TransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     txnType,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询流水失败", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// RequestWithdrawalRequest 提现申请请求
type RequestWithdrawalRequest struct {
	Amount   string      `json:"amount" binding:"required"`
	BankInfo models.JSON `json:"bank_info"`
}

// RequestWithdrawal 申请提现
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额格式错误", err)
		return
	}

	withdrawal, err := h.WalletService.RequestWithdrawal(userID, amount, req.BankInfo)
	if err != nil {
		respondWithMappedError(c, err, withdrawalRequestErrorRules, response.CodeInternal, "提现申请失败")
		return
	}
	response.Success(c, withdrawal)
}
