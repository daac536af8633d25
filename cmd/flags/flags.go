package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/vault-autounseal/common"
	"github.com/ruteri/vault-autounseal/httpserver"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")
	logFile := cCtx.String("log-file")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
		LogFile: logFile,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, phaseFn func() string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")

	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		PhaseFn:                  phaseFn,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	Value:   "https://127.0.0.1:8200",
	Usage:   "address of the local Vault server",
	EnvVars: []string{"VAULT_ADDR"},
}

var VaultCACertFlag = &cli.StringFlag{
	Name:    "vault-cacert",
	Value:   "",
	Usage:   "path to a CA certificate used to verify the Vault server certificate",
	EnvVars: []string{"VAULT_CACERT"},
}

var VaultTLSSkipVerifyFlag = &cli.BoolFlag{
	Name:    "vault-tls-skip-verify",
	Value:   false,
	Usage:   "disable Vault server certificate verification",
	EnvVars: []string{"VAULT_SKIP_VERIFY"},
}

var ServerProcessNameFlag = &cli.StringFlag{
	Name:  "server-process-name",
	Value: "vault",
	Usage: "local process to wait for before contacting the API, empty disables the wait",
}

var StorePrefixFlag = &cli.StringFlag{
	Name:  "store-prefix",
	Value: "",
	Usage: "key prefix inside the object store bucket",
}

var StoreEndpointFlag = &cli.StringFlag{
	Name:  "store-endpoint",
	Value: "",
	Usage: "custom S3-compatible endpoint, e.g. for MinIO",
}

var SecretSharesFlag = &cli.IntFlag{
	Name:  "secret-shares",
	Value: 5,
	Usage: "number of unseal shares generated at initialization",
}

var SecretThresholdFlag = &cli.IntFlag{
	Name:  "secret-threshold",
	Value: 3,
	Usage: "number of shares required to unseal",
}

var SettleDelayFlag = &cli.DurationFlag{
	Name:  "settle-delay",
	Value: 10 * time.Second,
	Usage: "wait after writing the election lock before re-reading it",
}

var SharePollAttemptsFlag = &cli.IntFlag{
	Name:  "share-poll-attempts",
	Value: 30,
	Usage: "existence checks per share before giving up",
}

var SharePollIntervalFlag = &cli.DurationFlag{
	Name:  "share-poll-interval",
	Value: time.Second,
	Usage: "delay between share existence checks",
}

var PollIntervalFlag = &cli.DurationFlag{
	Name:  "poll-interval",
	Value: time.Second,
	Usage: "delay between server readiness checks",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the status API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var LogFileFlag = &cli.StringFlag{
	Name:  "log-file",
	Value: "",
	Usage: "append logs to this file in addition to stderr, best effort",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	LogFileFlag,
	PprofFlag,
	MetricsAddrFlag,
	ListenAddrFlag,
}
