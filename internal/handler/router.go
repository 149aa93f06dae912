package handler

import (
	"time"

	"clm-server/internal/config"
	"clm-server/internal/middleware"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖集合，由 main 装配后注入
type Deps struct {
	Config        *config.Config
	DB            *gorm.DB
	Users         *service.UserService
	Organizations *service.OrganizationService
	Members       *service.MembershipService
	Invitations   *service.InvitationService
	Contracts     *service.ContractService
	ESign         *service.ESignService
	Authorizer    *service.Authorizer
}

// SetupRouter 设置路由
func SetupRouter(r *gin.Engine, deps *Deps) {
	cfg := deps.Config

	// 全局中间件
	r.Use(middleware.CORSMiddleware(cfg.Security.AllowedOrigins))
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())

	if cfg.Security.EnableSecurityHeaders {
		r.Use(middleware.SecurityHeadersMiddleware())
	}

	// 速率限制器
	limiter := middleware.NewRateLimiter(100, time.Minute)      // 普通接口：每分钟100次
	publicLimiter := middleware.NewRateLimiter(10, time.Minute) // 公开接口：每分钟10次

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "clm-server"})
	})

	authHandler := NewAuthHandler(deps.Users)
	orgHandler := NewOrganizationHandler(deps.Organizations, deps.Users)
	domainHandler := NewDomainHandler(deps.Organizations)
	memberHandler := NewMemberHandler(deps.Members, deps.Authorizer)
	invitationHandler := NewInvitationHandler(deps.Invitations, deps.Authorizer)
	contractHandler := NewContractHandler(deps.Contracts)
	esignHandler := NewESignHandler(deps.ESign)

	// ==================== 公开接口 ====================
	public := api.Group("")
	public.Use(middleware.RateLimitMiddleware(publicLimiter))
	{
		public.POST("/auth/register", authHandler.Register)          // 自助注册（域名匹配）
		public.POST("/auth/login", authHandler.Login)                // 登录
		public.GET("/domains/check", domainHandler.Check)            // 域名是否可注册
		public.POST("/invitations/accept", invitationHandler.Accept) // 接受邀请并完成注册
	}

	// ==================== 认证接口 ====================
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		authed.GET("/auth/profile", authHandler.Profile)

		// 组织管理
		orgs := authed.Group("/organizations")
		{
			orgs.POST("", orgHandler.Create)
			orgs.GET("", middleware.MainAdminMiddleware(), orgHandler.List)
			orgs.GET("/:id", orgHandler.Get)
			orgs.DELETE("/:id", orgHandler.Delete)

			// 成员与角色（组织管理员）
			orgs.GET("/:id/members", memberHandler.List)
			orgs.POST("/:id/members/roles", memberHandler.AssignRole)
			orgs.GET("/:id/members/:user_id/roles", memberHandler.ListUserRoles)
			orgs.GET("/:id/roles", memberHandler.ListRoles)
			orgs.POST("/:id/roles", memberHandler.CreateRole)
			orgs.PUT("/:id/roles/:role_id/permissions", memberHandler.UpdateRolePermissions)

			// 邀请（组织管理员）
			orgs.POST("/:id/invitations", invitationHandler.Invite)
		}

		// 合同（作用域固定为令牌中的组织）
		contracts := authed.Group("/contracts")
		contracts.Use(middleware.OrganizationMiddleware())
		{
			contracts.POST("", contractHandler.Create)
			contracts.GET("", contractHandler.List)
			contracts.POST("/upload-url", contractHandler.UploadURL)
			contracts.GET("/:id", contractHandler.Get)
			contracts.PUT("/:id", contractHandler.Update)
			contracts.PATCH("/:id/stage", contractHandler.UpdateStage)
			contracts.DELETE("/:id", contractHandler.Delete)
			contracts.GET("/:id/download-url", contractHandler.DownloadURL)
			contracts.POST("/:id/counterparties", contractHandler.AddCounterparty)
			contracts.DELETE("/:id/counterparties/:counterparty_id", contractHandler.RemoveCounterparty)
			contracts.POST("/:id/envelopes", esignHandler.SendEnvelope)
		}

		// 电子签名发件人
		esign := authed.Group("/esign")
		{
			esign.POST("/senders", esignHandler.RegisterSender)
			esign.GET("/senders/me", esignHandler.SenderStatus)
		}
	}
}
