package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"duo_chat_server/internal/config"
	dao "duo_chat_server/internal/dao/mysql"
	myredis "duo_chat_server/internal/dao/redis"
	"duo_chat_server/internal/handler"
	"duo_chat_server/internal/https_server"
	"duo_chat_server/internal/infrastructure/logger"
	"duo_chat_server/internal/infrastructure/push"
	"duo_chat_server/internal/service/chat"
	"duo_chat_server/internal/service/chatops"
	"duo_chat_server/internal/service/presence"
	"duo_chat_server/pkg/util/jwt"
	"duo_chat_server/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT 与雪花节点
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.Issuer, conf.JWTConfig.Audience, conf.JWTConfig.AccessTokenExpiry)
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	zap.L().Info("JWT/Snowflake 初始化成功")

	// 6. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("翻译器初始化失败", zap.Error(err))
	}

	// 7. 装配业务组件（依赖注入）
	var notifier push.Notifier = push.NopNotifier{}
	if conf.PushConfig.Enabled {
		notifier = push.NewWebhookNotifier(&conf.PushConfig)
	}
	coordinator := presence.NewCoordinator(dao.Repos.Session)
	opsService := chatops.NewService(dao.Repos, coordinator, myredis.Cache, notifier, conf.MainConfig.BaseURL)
	zap.L().Info("Service 层初始化成功")

	// 8. 初始化实时网关
	chatServer := chat.NewChatServer(chat.ChatServerConfig{
		Mode:        conf.KafkaConfig.MessageMode,
		Ops:         opsService,
		Coordinator: coordinator,
	})
	if conf.KafkaConfig.MessageMode == "kafka" {
		chatServer.InitKafka()
	}
	chatServer.Start()
	zap.L().Info("实时网关初始化成功", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 9. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(opsService, chatServer)
	engine := https_server.Init(handlers)

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务器启动成功",
		zap.String("host", conf.MainConfig.Host), zap.Int("port", conf.MainConfig.Port))

	// 10. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	chatServer.Close()
	zap.L().Info("服务器已关闭")
}
