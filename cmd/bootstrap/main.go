package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/wire"
	apperrors "autopen-api/pkg/errors"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 迁移数据库结构
	fmt.Println("Running schema migration...")
	if err := dataLayer.PgClient.DB().WithContext(ctx).AutoMigrate(
		&entity.User{},
		&entity.Project{},
		&entity.BrainDump{},
		&entity.BrainDumpFile{},
		&entity.BrainDumpLink{},
		&entity.Idea{},
		&entity.Ebook{},
		&entity.Chapter{},
		&entity.GenerationJob{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migration completed.")

	// 4. 创建首个管理员
	adminEmail := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@autopen.local"
	}
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123" // 生产环境请务必通过环境变量设置
	}

	existing, err := dataLayer.UserRepo.GetByEmail(ctx, adminEmail)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
		log.Fatalf("failed to check admin existence: %v", err)
	}

	if existing == nil {
		fmt.Printf("Creating admin user: %s...\n", adminEmail)
		admin, err := entity.NewUser(adminEmail, adminPassword, "System Admin")
		if err != nil {
			log.Fatalf("failed to build admin user: %v", err)
		}
		if err := dataLayer.UserRepo.Create(ctx, admin); err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		fmt.Println("Admin user created successfully.")
	} else {
		fmt.Printf("Admin user %s already exists.\n", adminEmail)
	}

	fmt.Println("Bootstrap completed successfully.")
}
