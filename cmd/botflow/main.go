// =============================================================================
// botflow 主入口
// =============================================================================
// 蓝图编译器的命令行与 HTTP 服务入口
//
// 使用方法:
//
//	botflow compile bp.json bp2.yaml         # 编译蓝图，按参数顺序输出结果
//	botflow compile --target n8n bp.json     # 编译并导出为 n8n 工作流
//	botflow validate bp.json                 # 仅校验
//	botflow node-types                       # 列出节点类型
//	botflow serve --config config.yaml       # 启动服务
//	botflow health --addr http://localhost:8080
//	botflow version
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/botflow/config"
	"github.com/BaSui01/botflow/internal/telemetry"
	"github.com/BaSui01/botflow/internal/tlsutil"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// CLI 子命令只输出警告以上日志到 stderr
	cliLogger := initLogger(config.LogConfig{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
	defer func() { _ = cliLogger.Sync() }()

	switch args[0] {
	case "compile":
		return runCompile(ctx, args[1:], stdout, stderr, cliLogger)
	case "validate":
		return runValidate(ctx, args[1:], stdout, stderr, cliLogger)
	case "node-types":
		return runNodeTypes(args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "health":
		return runHealthCheck(args[1:], stdout, stderr)
	case "version":
		printVersion(stdout)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 2
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting botflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	srv, err := NewServer(cfg, logger, "botflow")
	if err != nil {
		logger.Error("failed to initialize server", zap.Error(err))
		return 1
	}

	providers, err := telemetry.Init(cfg.Telemetry, telemetry.Options{
		Version:             Version,
		RegistryFingerprint: srv.registry.Fingerprint(),
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	srv.telemetry = providers

	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		srv.Shutdown()
		return 1
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return 1
	}

	logger.Info("botflow stopped")
	return 0
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	client := tlsutil.HTTPClient(5 * time.Second)
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Health check failed: status %d\n", resp.StatusCode)
		return 1
	}

	fmt.Fprintln(stdout, "OK")
	return 0
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "botflow %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `botflow - Blueprint to workflow graph compiler

Usage:
  botflow <command> [options]

Commands:
  compile      Compile blueprint files (JSON or YAML)
  validate     Validate blueprint files without compiling
  node-types   List the node-type registry
  serve        Start the HTTP API server
  health       Check server health
  version      Show version information
  help         Show this help message

Options for 'compile' and 'validate':
  --catalog <path>    Node-type catalog (YAML), builtin when empty
  --strict-cycles     Reject cycles through node types that do not allow them
  --jobs <n>          Maximum files processed concurrently

Options for 'compile':
  --target <name>     Export target (n8n)
  --no-layout         Keep authored node positions
  --optimize          Run post-compile optimizers

Options for 'serve':
  --config <path>     Path to configuration file (YAML)

Examples:
  botflow compile support.yaml greeter.json
  botflow compile --target n8n support.yaml
  botflow validate --strict-cycles support.yaml
  botflow serve --config /etc/botflow/config.yaml`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
