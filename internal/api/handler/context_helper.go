package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"shift-roster/internal/service"
	"shift-roster/pkg/response"
)

// 上下文键，由 middleware.JWTAuth 注入
const (
	CtxEmployeeID = "employee_id"
	CtxEmpNo      = "emp_no"
	CtxIsAdmin    = "is_admin"
	CtxTokenJTI   = "token_jti"
	CtxTokenExp   = "token_exp"
)

// MustGetEmployeeID 从 Gin 上下文中安全提取 employee_id。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetEmployeeID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(CtxEmployeeID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetCaller 提取调用方凭据（员工 ID + 管理员标记）
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	id, ok := MustGetEmployeeID(c)
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{EmployeeID: id, IsAdmin: c.GetBool(CtxIsAdmin)}, true
}

// tokenRemaining 当前 Token 的 jti 与剩余有效期
func tokenRemaining(c *gin.Context) (string, time.Duration) {
	jti := c.GetString(CtxTokenJTI)
	exp := c.GetTime(CtxTokenExp)
	if exp.IsZero() {
		return jti, 0
	}
	return jti, time.Until(exp)
}
