package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	Role string `form:"role" binding:"omitempty,oneof=admin coordinator professor"`
}

// UpdateUserRequest 更新用户请求（部分字段）
type UpdateUserRequest struct {
	Name            *string   `json:"name"              binding:"omitempty,notblank,max=100"`
	Email           *string   `json:"email"             binding:"omitempty,email"`
	Password        *string   `json:"password"          binding:"omitempty,min=6,max=72"`
	Role            *string   `json:"role"              binding:"omitempty,oneof=admin coordinator professor"`
	IsActive        *bool     `json:"is_active"`
	CoursesCanTeach *[]string `json:"courses_can_teach" binding:"omitempty,dive,uuid"`
}
