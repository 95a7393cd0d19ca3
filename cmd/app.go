package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"duoadmin/api"
	"duoadmin/config"
	"duoadmin/pkg/logger"

	"go.uber.org/zap"
)

// App 应用程序结构体
type App struct {
	config  *config.Config
	router  *api.Router
	server  *http.Server
	closers []func() error
}

// Run 启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅关闭
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", a.server.Addr),
			zap.String("upstream", a.config.Upstream.BaseURL))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			a.close()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
}

// Handler 返回 HTTP handler（用于测试）
func (a *App) Handler() http.Handler {
	return a.router.GetEngine()
}
