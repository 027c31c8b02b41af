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

// AdminListUsers 管理端用户列表
func (h *Handler) AdminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("access_level")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.AccessLevel = &parsed
		}
	}
	if raw := strings.TrimSpace(c.Query("sponsor_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.SponsorID = uint(parsed)
		}
	}

	users, total, err := h.UserRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询用户失败", err)
		return
	}
	response.SuccessWithPage(c, users, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// AdminConvertUserRequest 用户角色转换请求
type AdminConvertUserRequest struct {
	AccessLevel int    `json:"access_level" binding:"required"`
	SponsorCode string `json:"sponsor_code"`
}

// AdminConvertUser 转换用户角色并挂入推荐网络
func (h *Handler) AdminConvertUser(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	var req AdminConvertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}

	user, err := h.NetworkService.ConvertUser(actorID(c), userID, req.AccessLevel, req.SponsorCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		case errors.Is(err, service.ErrInvalidParams):
			respondError(c, response.CodeBadRequest, "参数无效", nil)
		case errors.Is(err, service.ErrInvalidSponsor):
			respondError(c, response.CodeBadRequest, "推荐人无效", nil)
		case errors.Is(err, service.ErrSponsorCycle):
			respondError(c, response.CodeBadRequest, "推荐关系存在环路", nil)
		default:
			respondError(c, response.CodeInternal, "用户转换失败", err)
		}
		return
	}
	response.Success(c, user)
}

// AdminUpdateAmbassadorRateRequest 大使佣金比例更新请求
type AdminUpdateAmbassadorRateRequest struct {
	Rate float64 `json:"rate"`
}

// AdminUpdateAmbassadorRate 更新大使的个人佣金比例
func (h *Handler) AdminUpdateAmbassadorRate(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "参数无效", nil)
		return
	}
	var req AdminUpdateAmbassadorRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数无效", err)
		return
	}

	if err := h.NetworkService.UpdateAmbassadorRate(actorID(c), userID, req.Rate); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		case errors.Is(err, service.ErrInvalidParams):
			respondError(c, response.CodeBadRequest, "参数无效", nil)
		default:
			respondError(c, response.CodeInternal, "更新佣金比例失败", err)
		}
		return
	}
	response.Success(c, nil)
}
