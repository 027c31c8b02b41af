package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/vanguard-next/internal/http/response"
	"github.com/vanguard-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListCommissions 管理端佣金列表
func (h *Handler) AdminListCommissions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.OrderID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("level")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Level = &parsed
		}
	}

	commissions, total, err := h.CommissionService.ListCommissions(filter)
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

// TriggerCommissionRelease 手动触发佣金解冻扫描
func (h *Handler) TriggerCommissionRelease(c *gin.Context) {
	released, err := h.CommissionService.RunReleaseSweep(time.Now())
	if err != nil {
		respondError(c, response.CodeInternal, "佣金解冻执行失败", err)
		return
	}
	requestLog(c).Infow("admin_commission_release_triggered", "released", released)
	response.Success(c, gin.H{"released": released})
}

// TriggerQualificationCheck 手动触发资格检查任务
func (h *Handler) TriggerQualificationCheck(c *gin.Context) {
	result, err := h.QualificationService.RunQualificationJob(time.Now())
	if err != nil {
		respondError(c, response.CodeInternal, "资格检查执行失败", err)
		return
	}
	requestLog(c).Infow("admin_qualification_check_triggered",
		"evaluated", result.Evaluated,
		"suspended", result.Suspended,
		"cancelled", result.Cancelled,
	)
	response.Success(c, result)
}
