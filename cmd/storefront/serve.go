package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/betbot/nftmarket/internal/api"
	"github.com/betbot/nftmarket/internal/app"
	"github.com/betbot/nftmarket/internal/metrics"
	"github.com/betbot/nftmarket/pkg/shutdown"
)

func runServe(a *app.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if addr := a.Config.Server.MetricsListen; addr != "" {
		if _, err := metrics.StartAsync(ctx, addr); err != nil {
			log.Warnf("metrics 启动失败（忽略）: %v", err)
		}
	}

	// 启动时先连接一次，失败不阻止服务启动，前端可再调用 /api/connect
	connectCtx, connectCancel := context.WithTimeout(ctx, 2*a.Config.API.Timeout+10*time.Second)
	if id, err := a.Storefront.Connect(connectCtx); err != nil {
		log.Warnf("初始连接失败: %v", err)
	} else {
		log.Infof("✅ 已连接: %s", id.PublicKey)
	}
	connectCancel()

	srv := api.New(a.Storefront, api.Options{AllowedOrigins: a.Config.Server.AllowedOrigins})
	httpSrv := &http.Server{
		Addr:              a.Config.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sm := shutdown.NewManager()
	sm.OnShutdown("websocket", func(context.Context) { srv.Close() })
	sm.OnShutdown("http", func(ctx context.Context) { _ = httpSrv.Shutdown(ctx) })

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🚀 storefront API 监听 %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, sigCancel := context.WithCancel(ctx)
	go func() {
		if err, ok := <-errCh; ok && err != nil {
			log.Errorf("HTTP 服务异常退出: %v", err)
		}
		sigCancel()
	}()

	if sig := shutdown.WaitForSignal(sigCtx); sig != nil {
		log.Infof("收到信号 %s，开始关闭", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	sm.Shutdown(shutdownCtx)
	return nil
}
