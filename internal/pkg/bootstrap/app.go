// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
)

// AppInfo 包含了启动服务所需的特定信息。
type AppInfo struct {
	ServiceName string
	Port        int
	Handler     http.Handler
	// OnShutdown 里的清理函数会在收到退出信号后按注册顺序执行
	// (注销服务发现、flush tracer 等)。
	OnShutdown []func(ctx context.Context)
}

// StartService 封装通用的启动和优雅关停逻辑。
// 阻塞直到进程收到 SIGINT / SIGTERM。
func StartService(info AppInfo) {
	server := &http.Server{
		Addr:    ":" + strconv.Itoa(info.Port),
		Handler: info.Handler,
	}

	go func() {
		logger.Logger().Info().
			Str("addr", server.Addr).
			Msgf("✅ %s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 阻塞主 goroutine，直到接收到退出信号
	<-quit
	logger.Logger().Info().Msgf("Shutting down %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, fn := range info.OnShutdown {
		fn(ctx)
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Logger().Info().Msgf("%s exited", info.ServiceName)
}
