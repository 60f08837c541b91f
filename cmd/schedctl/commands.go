package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-scheduler/config"
	"academic-scheduler/internal/repository"
	"academic-scheduler/internal/service"
	"academic-scheduler/pkg/database"
	applogger "academic-scheduler/pkg/logger"
)

var (
	configPath    string
	rollbackSteps int
	adminName     string
	adminEmail    string
	adminPassword string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "schedctl",
	Short:         "排课服务运维工具",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = applogger.NewLogger(&cfg.Log)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "数据库迁移",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "应用全部未执行的迁移",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sqlDB, err := openDB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return database.RunMigrations(sqlDB, logger)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "回滚指定步数的迁移",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sqlDB, err := openDB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return database.RollbackMigrations(sqlDB, rollbackSteps, logger)
	},
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "创建初始管理员账号（已存在时跳过）",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			password = os.Getenv("SCHED_ADMIN_PASSWORD")
		}
		if len(password) < 8 {
			return fmt.Errorf("管理员密码不能少于 8 位，可通过 --password 或 SCHED_ADMIN_PASSWORD 提供")
		}

		db, sqlDB, err := openDB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return err
		}

		users := service.NewUserService(repository.NewRepository(db), cfg.Auth.BcryptCost, logger)
		created, err := users.EnsureAdmin(cmd.Context(), adminName, adminEmail, password)
		if err != nil {
			return fmt.Errorf("创建管理员失败: %w", err)
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "管理员 %s 已创建\n", adminEmail)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "管理员 %s 已存在，未做修改\n", adminEmail)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "回滚步数")

	rootCmd.AddCommand(seedAdminCmd)
	seedAdminCmd.Flags().StringVar(&adminName, "name", "Administrador", "管理员姓名")
	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "admin@umg.edu", "管理员邮箱")
	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "", "管理员密码（留空时读取 SCHED_ADMIN_PASSWORD）")
}

func openDB() (*gorm.DB, *sql.DB, error) {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return db, sqlDB, nil
}
