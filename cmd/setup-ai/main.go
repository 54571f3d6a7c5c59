package main

import (
	"Agora/internal/api/config"
	"Agora/internal/pkg/database"
	"Agora/internal/pkg/logger"
	"Agora/internal/repository"
	"Agora/internal/service"
	"context"
	"flag"
	log "log/slog"
	"os"
	"time"
)

// 创建 AI 回答使用的系统账号，重复执行时保持幂等
func main() {
	nickname := flag.String("nickname", "AI 도우미", "display name of the ai account")
	flag.Parse()

	if err := config.LoadConfig(); err != nil {
		log.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	cfg := config.Cfg
	logger.InitLogger()

	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("failed to create database connection", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, created, err := service.ProvisionSystemAccount(ctx, repository.NewUserRepo(db), cfg.AI.SystemUsername, *nickname)
	if err != nil {
		log.Error("failed to provision ai account", "username", cfg.AI.SystemUsername, "err", err)
		os.Exit(1)
	}
	if !created {
		log.Info("ai account already exists", "id", user.ID, "username", user.Username, "role", user.Role)
		return
	}
	log.Info("ai account created", "id", user.ID, "username", user.Username)
}
