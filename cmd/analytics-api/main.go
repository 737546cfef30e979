package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sinanour/cultivate-sub001/internal/api"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/sinanour/cultivate-sub001/internal/pkg/logger"
	"github.com/sinanour/cultivate-sub001/internal/pkg/store"
	"github.com/sinanour/cultivate-sub001/internal/pkg/store/xpgx"
	"github.com/sinanour/cultivate-sub001/internal/service/analytics"
	"github.com/spf13/viper"
)

func main() {
	viper.AutomaticEnv()
	viper.SetDefault(constants.ViperKeyListenAddr, ":8080")
	viper.SetDefault(constants.ViperKeyLogLevel, "info")
	viper.SetDefault(constants.ViperKeyQueryTimeout, 30*time.Second)
	viper.SetDefault(constants.ViperKeyQueryAttempts, 3)

	logger.Init(viper.GetString(constants.ViperKeyLogLevel))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := xpgx.Connect(ctx, viper.GetString(constants.ViperKeyDatabaseDSN))
	if err != nil {
		logger.Fatal(ctx, err)
	}

	st := store.NewStore(pool)
	executor := analytics.NewExecutor(pool, analytics.ExecutorConfig{
		Attempts:       viper.GetInt(constants.ViperKeyQueryAttempts),
		AttemptTimeout: viper.GetDuration(constants.ViperKeyQueryTimeout),
	})
	svc := analytics.NewService(st, executor, viper.GetString(constants.ViperKeyDefaultRoleID))

	apiService, err := api.NewAPIService(svc, pool)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	go apiService.Serve(viper.GetString(constants.ViperKeyListenAddr))

	<-ctx.Done()
	logger.Infof(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiService.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "shutdown: %s", err.Error())
	}
}
