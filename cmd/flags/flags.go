package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/content-hash-registry/api"
	"github.com/ruteri/content-hash-registry/common"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
		MaxBodySize:              cCtx.Int64(MaxBodySizeFlag.Name),
		MaxClockSkew:             cCtx.Duration(MaxClockSkewFlag.Name),
	}
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Usage:   "Ethereum RPC to use instead of a registry server, e.g. http://127.0.0.1:8545",
	EnvVars: []string{"REGISTRY_RPC_ADDR"},
}

var ChainIDFlag = &cli.Int64Flag{
	Name:  "chain-id",
	Value: 1337,
	Usage: "chain id used to sign transactions when --rpc-addr is set",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:    "server",
	Value:   "http://127.0.0.1:8080",
	Usage:   "registry API base URL",
	EnvVars: []string{"REGISTRY_SERVER"},
}

var PrivateKeyFlag = &cli.StringFlag{
	Name:    "private-key",
	Usage:   "secp256k1 key as hex, or path to a file holding it",
	EnvVars: []string{"REGISTRY_PRIVATE_KEY"},
}

var RegistryAddrFlag = &cli.StringFlag{
	Name:    "registry",
	Usage:   "registry address, 40-char hex string",
	EnvVars: []string{"REGISTRY_ADDRESS"},
}

var StorageFlag = &cli.StringSliceFlag{
	Name:  "storage",
	Value: cli.NewStringSlice("leveldb://./registry-data"),
	Usage: "state store location URI, repeat to replicate (memory, leveldb, file, s3, vault, redis, ipfs)",
}

var GasLimitFlag = &cli.Uint64Flag{
	Name:  "gas-limit",
	Value: 0,
	Usage: "gas limit for each mutating call, 0 for unlimited",
}

var MaxBodySizeFlag = &cli.Int64Flag{
	Name:  "max-body-size",
	Value: api.DefaultMaxBodySize,
	Usage: "maximum request body size in bytes",
}

var MaxClockSkewFlag = &cli.DurationFlag{
	Name:  "max-clock-skew",
	Value: api.DefaultMaxClockSkew,
	Usage: "reject signed requests whose timestamp differs from the server clock by more than this",
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
	Value: "content-hash-registry",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics, empty to disable",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var CommonFlags = append([]cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
	MaxBodySizeFlag,
	MaxClockSkewFlag,
}, LogFlags...)
