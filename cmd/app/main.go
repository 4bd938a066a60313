package main

import (
	"tripcore/config"
	"tripcore/di"
	"tripcore/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	worker := di.InitializeWorker()
	worker.Run()
}
