// Command cdp-session-engine owns one Chrome process (launched or attached)
// and drives it through a Session for as long as the process runs, exposing
// nothing beyond a startup Evaluate smoke check and the shutdown sequence.
// Per spec.md §1 the outer RPC/tool surface is out of scope; this binary
// only demonstrates the engine wiring a real server would embed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cdpsession/engine/internal/config"
	"github.com/cdpsession/engine/internal/launcher"
	logutil "github.com/cdpsession/engine/internal/logging"
	"github.com/cdpsession/engine/internal/metrics"
	"github.com/cdpsession/engine/internal/session"
)

func main() {
	configPath := flag.String("c", "", "Path to engine configuration file (defaults applied when empty)")
	attachHTTP := flag.String("attach", "", "HTTP base of an already-running Chrome (e.g. http://127.0.0.1:9222); launches a new Chrome when empty")
	headless := flag.Bool("headless", true, "Launch Chrome headlessly (ignored when -attach is set)")
	flag.Parse()

	initialLogger, err := logutil.NewDefaultLogger()
	if err != nil {
		panic(err)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			initialLogger.Fatal("Failed to load configuration", zap.Error(err))
		}
		cfg = loaded
	}

	dynamicLogger, err := logutil.NewLoggerWithStartupOverride(cfg.Log)
	if err != nil {
		initialLogger.Fatal("Failed to create configured logger", zap.Error(err))
	}
	logger := dynamicLogger.Logger

	metricsCollector := metrics.New("cdp_session_engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var proc *launcher.Process
	wsURL := ""
	httpBase := *attachHTTP

	if httpBase != "" {
		logger.Info("Attaching to running Chrome", zap.String("http_base", httpBase))
		wsURL, err = launcher.Attach(ctx, httpBase)
		if err != nil {
			logger.Fatal("Failed to attach to Chrome", zap.Error(err))
		}
	} else {
		logger.Info("Launching Chrome", zap.Bool("headless", *headless))
		proc, err = launcher.Launch(ctx, logger, launcher.Options{Headless: *headless})
		if err != nil {
			logger.Fatal("Failed to launch Chrome", zap.Error(err))
		}
		wsURL = proc.WSEndpoint
	}

	sess := session.New(cfg, session.WithLogger(logger), session.WithMetrics(metricsCollector))

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	err = sess.Attach(connectCtx, httpBase, wsURL)
	connectCancel()
	if err != nil {
		logger.Fatal("Failed to connect session", zap.Error(err))
	}

	for _, domain := range []string{"Debugger", "Runtime", "Network"} {
		enableCtx, enableCancel := context.WithTimeout(ctx, 5*time.Second)
		err := sess.EnableDomain(enableCtx, domain)
		enableCancel()
		if err != nil {
			logger.Fatal("Failed to enable domain", zap.String("domain", domain), zap.Error(err))
		}
	}

	logger.Info("Session engine ready", zap.String("ws_url", wsURL))

	smokeCtx, smokeCancel := context.WithTimeout(ctx, 5*time.Second)
	result, err := sess.Evaluate(smokeCtx, "1 + 1")
	smokeCancel()
	if err != nil {
		logger.Error("Startup evaluate failed", zap.Error(err))
	} else {
		logger.Info("Startup evaluate succeeded",
			zap.ByteString("result", result.Result),
			zap.Bool("paused", result.Paused))
	}

	dynamicLogger.SwitchToConfiguredLevel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	dynamicLogger.EnsureInfoLevelForShutdown()
	logger.Info("Shutting down")

	if err := sess.Close(); err != nil {
		logger.Error("Session close error", zap.Error(err))
	}
	if proc != nil {
		proc.Kill()
	}
	logger.Info("Session engine stopped")
}
