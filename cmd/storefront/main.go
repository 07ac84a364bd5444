package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/internal/app"
	"github.com/betbot/nftmarket/pkg/config"
	"github.com/betbot/nftmarket/pkg/logger"
)

var log = logrus.WithField("component", "main")

const usage = `用法: storefront [-config path] <command> [flags]

命令:
  serve     启动 HTTP API + websocket 推送
  tui       启动终端界面
  orders    打印当前订单簿
  balance   打印当前钱包余额
  buy       购买一个挂单 (-token-id, -seller)
  sell      挂卖一个持有的 NFT (-token-id, -price)
`

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", getenv("NFTMARKET_CONFIG", ""), "配置文件路径 (.yaml/.yml/.json)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fatal(err)
	}

	// 终端界面占用 stdout，日志只写文件
	logCfg := logger.Config{Level: cfg.LogLevel, OutputFile: cfg.LogFile}
	if cmd == "tui" {
		logCfg.DisableConsole = true
		if logCfg.OutputFile == "" {
			logCfg.OutputFile = "logs/storefront-tui.log"
		}
	}
	if err := logger.Init(logCfg); err != nil {
		fatal(err)
	}

	a, err := app.Build(cfg, os.Getenv("WALLET_SECRET_STORE_KEY"))
	if err != nil {
		fatal(err)
	}

	switch cmd {
	case "serve":
		err = runServe(a)
	case "tui":
		err = runTUI(a)
	case "orders":
		err = runOrders(a)
	case "balance":
		err = runBalance(a)
	case "buy":
		err = runBuy(a, args)
	case "sell":
		err = runSell(a, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

// connect 连接钱包并等待首次加载完成
func connect(a *app.App) (context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.Config.API.Timeout+10*time.Second)
	if _, err := a.Storefront.Connect(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	return ctx, cancel, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
