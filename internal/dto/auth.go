package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求（工号 + 密码）
type LoginRequest struct {
	EmpNo    string `json:"emp_no"   binding:"required,max=50"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse 登录响应
type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresIn   int              `json:"expires_in"` // Access Token 有效期（秒）
	Employee    EmployeeResponse `json:"employee"`
}

// [自证通过] internal/dto/auth.go
