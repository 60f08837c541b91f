package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Email           string                `json:"email"`
	Role            string                `json:"role"`
	IsActive        bool                  `json:"is_active"`
	CoursesCanTeach []CourseBriefResponse `json:"courses_can_teach"`
	CreatedAt       string                `json:"created_at"`
}

// ── 通用 ──

// DeleteResponse 删除确认；deleted=false 表示记录本就不存在
type DeleteResponse struct {
	OK      bool `json:"ok"`
	Deleted bool `json:"deleted"`
}
