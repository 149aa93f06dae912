package handler

import (
	"clm-server/internal/middleware"
	"clm-server/internal/pkg/response"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterRequest 自助注册请求
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 自助注册
// 邮箱域名必须已被某个组织注册，注册成功自动归入该组织
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.users.Register(service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"organization_id": user.OrganizationID,
	})
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, token, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	payload := gin.H{
		"token": token,
		"user": gin.H{
			"id":            user.ID,
			"email":         user.Email,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"is_main_admin": user.IsMainAdmin,
		},
	}

	if user.Organization != nil {
		domains := make([]string, 0, len(user.Organization.Domains))
		for _, d := range user.Organization.Domains {
			domains = append(domains, d.Domain)
		}
		payload["organization"] = gin.H{
			"id":      user.Organization.ID,
			"name":    user.Organization.Name,
			"domains": domains,
		}
	}

	response.Success(c, payload)
}

// Profile 当前用户资料
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.users.Profile(middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	roles := make([]gin.H, 0, len(user.Roles))
	for _, ur := range user.Roles {
		if ur.Role == nil {
			continue
		}
		roles = append(roles, gin.H{
			"id":          ur.Role.ID,
			"name":        ur.Role.Name,
			"permissions": ur.Role.Permissions,
		})
	}

	payload := gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"is_main_admin":   user.IsMainAdmin,
		"organization_id": user.OrganizationID,
		"last_login_at":   user.LastLoginAt,
		"roles":           roles,
	}
	if user.Organization != nil {
		payload["organization"] = gin.H{
			"id":   user.Organization.ID,
			"name": user.Organization.Name,
		}
	}

	response.Success(c, payload)
}
