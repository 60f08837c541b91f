package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册用户请求（仅管理员/协调员）
type RegisterRequest struct {
	Name            string   `json:"name"              binding:"required,notblank,max=100"`
	Email           string   `json:"email"             binding:"required,email"`
	Password        string   `json:"password"          binding:"required,min=6,max=72"`
	Role            string   `json:"role"              binding:"omitempty,oneof=admin coordinator professor"`
	CoursesCanTeach []string `json:"courses_can_teach" binding:"omitempty,dive,uuid"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
