package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/meoying/shardrouter/config"
	"github.com/meoying/shardrouter/internal/datasource/shardingsource"
	"github.com/meoying/shardrouter/internal/detector"
	"github.com/meoying/shardrouter/internal/metrics"
	"github.com/meoying/shardrouter/internal/pool"
	"github.com/meoying/shardrouter/internal/readsplit"
	"github.com/meoying/shardrouter/internal/router"
	"github.com/meoying/shardrouter/internal/statement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfile := pflag.String("config",
		"config/router.yaml", "配置文件路径")
	pflag.String("routing", "config/routing.yaml", "分区和逻辑表配置文件路径")
	pflag.String("addr", ":8090", "metrics 和 explain 接口的监听地址")
	pflag.String("log-level", "info", "日志级别")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*cfile)
	viper.SetDefault("detector.interval", 10*time.Second)
	viper.SetDefault("detector.timeout", time.Second)
	viper.SetDefault("log.format", "text")
	_ = viper.BindPFlag("routing", pflag.Lookup("routing"))
	_ = viper.BindPFlag("addr", pflag.Lookup("addr"))
	_ = viper.BindPFlag("log.level", pflag.Lookup("log-level"))
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("初始化读取配置文件失败 %w", err))
	}
	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		panic(fmt.Errorf("解析配置文件失败 %w", err))
	}
	logger, err := cfg.Log.logger()
	if err != nil {
		panic(fmt.Errorf("初始化日志失败 %w", err))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err = run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("退出", slog.Any("err", err))
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	rc, err := config.ParseFile(cfg.Routing)
	if err != nil {
		return err
	}
	m := metrics.New(prometheus.DefaultRegisterer)
	counters := readsplit.NewCounters()
	registry, err := rc.Registry(counters)
	if err != nil {
		return err
	}
	algorithms, err := rc.ShardingAlgorithms()
	if err != nil {
		return err
	}
	tables, err := rc.LogicTables(algorithms)
	if err != nil {
		return err
	}
	executor, err := rc.NewExecutor(statement.WithExecutorLogger(logger), statement.WithExecutorMetrics(m))
	if err != nil {
		return err
	}

	p, err := pool.Open(&mysql.MySQLDriver{}, registry,
		pool.WithLogger(logger), pool.WithConnMaxLifetime(cfg.Pool.MaxLifetime))
	if err != nil {
		return err
	}
	defer func() {
		if er := p.Close(); er != nil {
			logger.Error("关闭连接池失败", slog.Any("err", er))
		}
	}()

	routerOpts := []router.Option{router.WithLogger(logger), router.WithMetrics(m)}
	if cfg.StrictShardKey {
		routerOpts = append(routerOpts, router.WithStrictShardKey())
	}
	ds := shardingsource.New(registry, router.NewRouter(registry, routerOpts...),
		readsplit.NewRepository(counters, readsplit.WithLogger(logger), readsplit.WithMetrics(m)),
		p, shardingsource.WithExecutor(executor), shardingsource.WithLogger(logger))

	d := detector.New(registry, p,
		detector.WithInterval(cfg.Detector.Interval),
		detector.WithTimeout(cfg.Detector.Timeout),
		detector.WithLogger(logger),
		detector.WithMetrics(m))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/explain", &explainHandler{ds: ds, tables: tables, logger: logger})
	server := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return d.Run(ctx)
	})
	eg.Go(func() error {
		logger.Info("启动", slog.String("addr", cfg.Addr), slog.Int("partitions", registry.Len()))
		if er := server.ListenAndServe(); er != nil && !errors.Is(er, http.ErrServerClosed) {
			return er
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(sctx)
	})
	return eg.Wait()
}
