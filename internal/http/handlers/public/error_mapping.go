package public

import (
	"errors"

	"github.com/vanguard-next/internal/http/response"
	"github.com/vanguard-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var registerErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidParams, code: response.CodeBadRequest, msg: "参数无效"},
	{target: service.ErrEmailTaken, code: response.CodeBadRequest, msg: "邮箱已被注册"},
	{target: service.ErrInvalidSponsor, code: response.CodeBadRequest, msg: "推荐人无效"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidParams, code: response.CodeBadRequest, msg: "参数无效"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "用户不存在"},
	{target: service.ErrUserDisabled, code: response.CodeBadRequest, msg: "用户状态不允许下单"},
}

var withdrawalRequestErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidParams, code: response.CodeBadRequest, msg: "参数无效"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "用户不存在"},
	{target: service.ErrUserDisabled, code: response.CodeBadRequest, msg: "用户状态不允许提现"},
	{target: service.ErrWithdrawalTooSmall, code: response.CodeBadRequest, msg: "提现金额低于最低限额"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, msg: "可用余额不足"},
}
