package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 患者自助注册请求
type RegisterRequest struct {
	FirstName string  `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string  `json:"last_name"  binding:"required,min=1,max=100"`
	Email     string  `json:"email"      binding:"required,email"`
	Phone     *string `json:"phone"      binding:"omitempty,max=30"`
	Password  string  `json:"password"   binding:"required,min=8,max=72"`
}

// CreateUserRequest 管理端创建用户（命令行 create-user 使用）
type CreateUserRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Password  string
	Role      string
}
