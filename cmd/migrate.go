package cmd

import (
	"context"
	"fmt"
	"os"

	internalApp "github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/upgrade"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"upgrade"},
	Short:   "Apply pending database schema upgrades and exit",
	Long: `Apply pending database schema upgrades and exit.

This command will check the current database version and apply all pending migrations.
It is safe to run this command multiple times - already applied migrations will be skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		appConfig, lg, db, err := openForCommand(configPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer closeDB(db)

		fmt.Println("Starting database upgrade...")

		// 执行升级
		if err := upgrade.Execute(context.Background(), db, lg, internalApp.Version); err != nil {
			fmt.Printf("Upgrade failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Database upgrade completed successfully! (%s)\n", appConfig.Database.Type)
	},
}

// openForCommand 为一次性命令加载配置、日志与数据库
func openForCommand(configFlag string) (*internalApp.AppConfig, *zap.Logger, *gorm.DB, error) {
	loadDotEnv()

	configPath := resolveConfigPath(configFlag)
	if configPath == "" {
		return nil, nil, nil, fmt.Errorf("config file not found, use -c or %s", ConfigEnv)
	}

	// 使用 LoadConfig 直接加载配置到 AppConfig
	appConfig, configRealpath, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	fmt.Printf("Loading config from: %s\n", configRealpath)

	// 初始化日志
	lg, err := newLogger(appConfig)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 初始化数据库（使用注入的配置）
	db, err := initDatabaseWithConfig(appConfig, lg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	return appConfig, lg, db, nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringP("config", "c", "", "config file path")
}
