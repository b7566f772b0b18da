package cmd

import (
	"os"

	"github.com/haierkeys/note-chain-service/pkg/fileurl"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// ConfigEnv 指定配置文件路径的环境变量
const ConfigEnv = "NCS_CONFIG"

// loadDotEnv 加载工作目录下的 .env 文件，文件不存在时忽略
func loadDotEnv() {
	if !fileurl.IsExist(".env") {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		bootstrapLogger.Warn("failed to load .env", zap.Error(err))
		return
	}
	bootstrapLogger.Info(".env loaded")
}

// resolveConfigPath 确定配置文件路径
// 优先级：命令行参数 -> NCS_CONFIG -> config/config-dev.yaml -> config.yaml -> config/config.yaml
// 都不存在时返回空字符串
func resolveConfigPath(flagValue string) string {
	if len(flagValue) > 0 {
		return flagValue
	}
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	for _, p := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if fileurl.IsExist(p) {
			return p
		}
	}
	return ""
}

// writeDefaultConfig 将内置默认配置写入 path
func writeDefaultConfig(path string) error {
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(configDefault)
	return err
}
