package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/unified-ledger/api"
	"github.com/ruteri/unified-ledger/common"
	"github.com/ruteri/unified-ledger/config"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	return newLogger(logJSON, logDebug, logUID, logService)
}

// SetupLoggerFromConfig builds the logger from a loaded config, after
// ApplyConfigOverrides has folded in explicit flags.
func SetupLoggerFromConfig(cfg *config.Config) *slog.Logger {
	return newLogger(cfg.Log.JSON, cfg.Log.Debug, cfg.Log.UID, cfg.Log.Service)
}

func newLogger(logJSON, logDebug, logUID bool, logService string) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cfg *config.Config, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cfg.ListenAddr,
		MetricsAddr:              cfg.MetricsAddr,
		Log:                      logger,
		EnablePprof:              cfg.EnablePprof,
		DrainDuration:            time.Duration(cfg.DrainSeconds) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ApplyConfigOverrides copies every flag the user set explicitly into cfg.
// Flags left at their defaults do not override the file or environment.
func ApplyConfigOverrides(cCtx *cli.Context, cfg *config.Config) {
	if cCtx.IsSet(ListenAddrFlag.Name) {
		cfg.ListenAddr = cCtx.String(ListenAddrFlag.Name)
	}
	if cCtx.IsSet(MetricsAddrFlag.Name) {
		cfg.MetricsAddr = cCtx.String(MetricsAddrFlag.Name)
	}
	if cCtx.IsSet(StorageFlag.Name) {
		cfg.Storage = cCtx.StringSlice(StorageFlag.Name)
	}
	if cCtx.IsSet(StorageDNSFlag.Name) {
		cfg.StorageDNS = cCtx.String(StorageDNSFlag.Name)
	}
	if cCtx.IsSet(DNSServerFlag.Name) {
		cfg.DNSServer = cCtx.String(DNSServerFlag.Name)
	}
	if cCtx.IsSet(VerifyOnSetFlag.Name) {
		cfg.VerifyOnSet = cCtx.Bool(VerifyOnSetFlag.Name)
	}
	if cCtx.IsSet(AMQPURLFlag.Name) {
		cfg.AMQP.URL = cCtx.String(AMQPURLFlag.Name)
	}
	if cCtx.IsSet(AMQPExchangeFlag.Name) {
		cfg.AMQP.Exchange = cCtx.String(AMQPExchangeFlag.Name)
	}
	if cCtx.IsSet(LogJsonFlag.Name) {
		cfg.Log.JSON = cCtx.Bool(LogJsonFlag.Name)
	}
	if cCtx.IsSet(LogDebugFlag.Name) {
		cfg.Log.Debug = cCtx.Bool(LogDebugFlag.Name)
	}
	if cCtx.IsSet(LogUidFlag.Name) {
		cfg.Log.UID = cCtx.Bool(LogUidFlag.Name)
	}
	if cCtx.IsSet("log-service") {
		cfg.Log.Service = cCtx.String("log-service")
	}
	if cCtx.IsSet(PprofFlag.Name) {
		cfg.EnablePprof = cCtx.Bool(PprofFlag.Name)
	}
	if cCtx.IsSet(DrainSecondsFlag.Name) {
		cfg.DrainSeconds = cCtx.Int64(DrainSecondsFlag.Name)
	}
}

var ConfigFileFlag = &cli.StringFlag{
	Name:    "config",
	Usage:   "path to a YAML config file",
	EnvVars: []string{"UL_CONFIG"},
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: config.DefaultListenAddr,
	Usage: "address to listen on for API",
}

var StorageFlag = &cli.StringSliceFlag{
	Name:  "storage",
	Usage: "storage backend URI, repeat for redundant storage (memory://, file://, s3://, ipfs://, vault://, github://, redis://, mysql://, sqlite://)",
}

var StorageDNSFlag = &cli.StringFlag{
	Name:  "storage-dns",
	Usage: "domain whose ul-storage= TXT records list additional storage URIs",
}

var DNSServerFlag = &cli.StringFlag{
	Name:  "dns-server",
	Usage: "DNS server (host:port) for --storage-dns, defaults to the system resolver",
}

var VerifyOnSetFlag = &cli.BoolFlag{
	Name:  "verify-on-set",
	Value: false,
	Usage: "reject proofs that do not verify when they are stored",
}

var AMQPURLFlag = &cli.StringFlag{
	Name:  "amqp-url",
	Usage: "RabbitMQ URL, enables proof stored events",
}

var AMQPExchangeFlag = &cli.StringFlag{
	Name:  "amqp-exchange",
	Value: "ul.proofs",
	Usage: "exchange proof stored events are published to",
}

var ServerURLFlag = &cli.StringFlag{
	Name:    "server",
	Value:   "http://" + config.DefaultListenAddr,
	Usage:   "proof store server URL",
	EnvVars: []string{"UL_SERVER"},
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

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: config.DefaultDrainSeconds,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: config.DefaultMetricsAddr,
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
