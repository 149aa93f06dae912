package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"clm-server/internal/config"
	"clm-server/internal/handler"
	"clm-server/internal/model"
	"clm-server/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	migrate := flag.Bool("migrate", false, "是否执行数据库迁移")
	initAdmin := flag.Bool("init-admin", false, "初始化主管理员账号")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	db, err := model.Open(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	log.Println("数据库连接成功")

	// 自动执行数据库迁移（确保表结构是最新的）
	log.Println("检查数据库表结构...")
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 数据库迁移（仅迁移模式）
	if *migrate {
		log.Println("数据库迁移完成")
		os.Exit(0)
	}

	// 装配服务
	users := service.NewUserService(db, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	orgs := service.NewOrganizationService(db)
	members := service.NewMembershipService(db)
	authorizer := service.NewAuthorizer(db)

	var emailSender service.EmailSender
	if cfg.Email.Enabled {
		emailSender = service.NewEmailService(&cfg.Email)
	}
	invitations := service.NewInvitationService(db, emailSender,
		cfg.Invitation.ExpireDays, cfg.Invitation.AcceptBaseURL)

	storage, err := service.NewS3Storage(&cfg.Storage)
	if err != nil {
		log.Fatalf("初始化对象存储失败: %v", err)
	}
	contracts := service.NewContractService(db, storage)

	esignClient := service.NewSignatureClient(&cfg.ESign)
	esign := service.NewESignService(db, esignClient, storage, contracts)

	// 初始化主管理员账号
	if *initAdmin {
		log.Println("初始化主管理员账号...")

		adminEmail := "admin@example.com"
		adminPassword := "admin123"

		if _, err := users.EnsureMainAdmin(adminEmail, adminPassword); err != nil {
			log.Fatalf("创建主管理员失败: %v", err)
		}

		log.Println("主管理员账号就绪!")
		log.Printf("邮箱: %s", adminEmail)
		log.Printf("密码: %s", adminPassword)
		log.Println("")
		log.Println("【重要提示】请登录后立即修改默认密码！")
		os.Exit(0)
	}

	// 创建 Gin 引擎
	r := gin.New()

	// 设置路由
	handler.SetupRouter(r, &handler.Deps{
		Config:        cfg,
		DB:            db,
		Users:         users,
		Organizations: orgs,
		Members:       members,
		Invitations:   invitations,
		Contracts:     contracts,
		ESign:         esign,
		Authorizer:    authorizer,
	})

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("服务器启动在 http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}
