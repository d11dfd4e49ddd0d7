// Command feignclient-demo wires every ambient/domain package in this
// module together against a small reference API, structured like
// EdgeComet-engine's cmd/edge-gateway/main.go: flag-parsed config path,
// strict-decoded YAML config, a startup-then-configured logger swap, a
// metrics HTTP server, and a graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/gofeign/gofeign/feign"
	"github.com/gofeign/gofeign/feign/breaker"
	"github.com/gofeign/gofeign/feign/loadbalancer"
	"github.com/gofeign/gofeign/feign/retry"
	"github.com/gofeign/gofeign/feign/transport/fasthttptransport"
	"github.com/gofeign/gofeign/feignconfig"
	"github.com/gofeign/gofeign/feignlog"
	"github.com/gofeign/gofeign/feignmetrics"
)

// contributor mirrors one entry of GitHub's contributors API response —
// the reference operation this demo exercises end to end.
type contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// githubClient is the declarative client the demo builds via
// feign.NewBuilder, the same shape as the githubClient declared in
// feign/feign_test.go.
type githubClient struct {
	GetContributors func(ctx context.Context, owner, repo string) ([]contributor, error) `feign:"GET /repos/{owner}/{repo}/contributors"`
}

func main() {
	configPath := flag.String("c", "configs/feignclient-demo.yaml", "path to configuration file")
	owner := flag.String("owner", "golang", "repository owner to query")
	repo := flag.String("repo", "go", "repository name to query")
	flag.Parse()

	initialLogger, err := feignlog.NewDefaultLogger()
	if err != nil {
		log.Fatalf("failed to create startup logger: %v", err)
	}
	initialLogger.Info("starting feignclient-demo", zap.String("config_path", *configPath))

	cfg, err := feignconfig.Load(*configPath)
	if err != nil {
		initialLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	dynamicLogger, err := feignlog.NewLogger(cfg.Log)
	if err != nil {
		initialLogger.Fatal("failed to create configured logger", zap.Error(err))
	}
	defer dynamicLogger.Sync()
	dynamicLogger.SwitchToConfiguredLevel()

	metricsCollector := feignmetrics.New(cfg.Metrics.Namespace)
	metricsServer := startMetricsServer(dynamicLogger, metricsCollector)

	client, err := buildClient(cfg, dynamicLogger, metricsCollector)
	if err != nil {
		dynamicLogger.Fatal("failed to build declarative client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadTimeoutDuration())
	defer cancel()

	contributors, err := client.GetContributors(ctx, *owner, *repo)
	if err != nil {
		dynamicLogger.Error("GetContributors failed", zap.Error(err))
	} else {
		for _, c := range contributors {
			fmt.Printf("%-30s %d contributions\n", c.Login, c.Contributions)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	dynamicLogger.EnsureInfoLevelForShutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		dynamicLogger.Error("metrics server shutdown error", zap.Error(err))
	}
	dynamicLogger.Info("feignclient-demo shut down cleanly")
}

// buildClient wires feignconfig's loaded settings into a feign.Builder:
// retry, logging, metrics, an optional circuit breaker, and a transport
// choice between the stdlib default and fasthttptransport.
func buildClient(cfg *feignconfig.Config, logger *feignlog.DynamicLogger, metrics *feignmetrics.PrometheusMetrics) (*githubClient, error) {
	opts := feign.Options{
		ConnectTimeout:  cfg.ConnectTimeoutDuration(),
		ReadTimeout:     cfg.ReadTimeoutDuration(),
		FollowRedirects: *cfg.Options.FollowRedirects,
		Decode404:       cfg.Decode404,
	}

	var transport feign.Transport
	if cfg.Transport == "fasthttp" {
		transport = fasthttptransport.New(
			fasthttptransport.WithReadTimeout(cfg.ReadTimeoutDuration()),
		)
	} else {
		transport = feign.NewDefaultTransport(opts)
	}

	if cfg.Breaker.Enabled {
		transport = breaker.Wrap(transport,
			breaker.WithMaxRequestsHalfOpen(cfg.Breaker.MaxRequestsHalfOpen),
			breaker.WithConsecutiveFailures(cfg.Breaker.ConsecutiveFailures),
			breaker.WithFailureStatus(func(status int) bool { return status >= 500 }),
			breaker.WithOnStateChange(func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("host", name), zap.String("from", from.String()), zap.String("to", to.String()))
			}),
		)
	}

	builder := feign.NewBuilder().
		Transport(transport).
		Options(opts).
		Logger(logger).
		LogLevel(feign.LogBasic).
		Metrics(metrics).
		Decode404(cfg.Decode404).
		CloseAfterDecode(cfg.CloseAfterDecode).
		ExceptionPropagationPolicy(cfg.PropagationPolicy())

	if cfg.Retry.MaxAttempts > 0 {
		period := cfg.RetryPeriodDuration()
		maxPeriod := cfg.RetryMaxPeriodDuration()
		maxAttempts := cfg.Retry.MaxAttempts
		builder = builder.Retryer(func() retry.Retryer {
			return retry.NewDefault(period, maxPeriod, maxAttempts)
		})
	}

	retryableExtra, err := loadbalancer.RetryableStatusCodes(cfg.RetryableStatusCodes)
	if err != nil {
		return nil, err
	}
	if len(retryableExtra) > 0 {
		builder = builder.ErrorDecoder(loadbalancer.WrapErrorDecoder(retryableExtra, nil))
	}

	var client githubClient
	if err := builder.Build(&client, feign.NewHardCodedTarget(cfg.Target.Name, cfg.Target.BaseURL)); err != nil {
		return nil, err
	}
	return &client, nil
}

func startMetricsServer(logger *feignlog.DynamicLogger, metrics *feignmetrics.PrometheusMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: ":9090", Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics server listening", zap.String("addr", srv.Addr))
	return srv
}
