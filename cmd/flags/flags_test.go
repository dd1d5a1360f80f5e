package flags

import (
	"testing"

	"github.com/ruteri/unified-ledger/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runWithFlags(t *testing.T, args []string, fn func(cCtx *cli.Context)) {
	t.Helper()
	app := &cli.App{
		Name: "test",
		Flags: append([]cli.Flag{
			ListenAddrFlag,
			StorageFlag,
			StorageDNSFlag,
			DNSServerFlag,
			VerifyOnSetFlag,
			AMQPURLFlag,
			AMQPExchangeFlag,
			LogServiceFlagFn("test"),
		}, CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			fn(cCtx)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
}

func TestApplyConfigOverrides(t *testing.T) {
	cfg := &config.Config{
		ListenAddr:  "0.0.0.0:1",
		MetricsAddr: "0.0.0.0:2",
		Storage:     []string{"memory://file"},
		AMQP:        config.AMQPConfig{Exchange: "from-file"},
	}

	runWithFlags(t, []string{
		"--listen-addr", "127.0.0.1:9999",
		"--storage", "memory://a",
		"--storage", "file:///tmp/b",
		"--verify-on-set",
		"--log-json",
		"--drain-seconds", "5",
	}, func(cCtx *cli.Context) {
		ApplyConfigOverrides(cCtx, cfg)
	})

	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Equal(t, "0.0.0.0:2", cfg.MetricsAddr, "unset flags keep config values")
	assert.Equal(t, []string{"memory://a", "file:///tmp/b"}, cfg.Storage)
	assert.True(t, cfg.VerifyOnSet)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, int64(5), cfg.DrainSeconds)
	assert.Equal(t, "from-file", cfg.AMQP.Exchange)
}

func TestConfigureServer(t *testing.T) {
	cfg := &config.Config{ListenAddr: "a:1", MetricsAddr: "b:2", EnablePprof: true, DrainSeconds: 3}
	runWithFlags(t, nil, func(cCtx *cli.Context) {
		log := SetupLogger(cCtx)
		srvCfg := ConfigureServer(cfg, log)
		assert.Equal(t, "a:1", srvCfg.ListenAddr)
		assert.Equal(t, "b:2", srvCfg.MetricsAddr)
		assert.True(t, srvCfg.EnablePprof)
		assert.Equal(t, int64(3), int64(srvCfg.DrainDuration.Seconds()))
		assert.NotNil(t, srvCfg.Log)
		assert.Positive(t, srvCfg.GracefulShutdownDuration)
		assert.Positive(t, srvCfg.ReadTimeout)
		assert.Positive(t, srvCfg.WriteTimeout)
	})
}

func TestSetupLoggerFromConfig(t *testing.T) {
	log := SetupLoggerFromConfig(&config.Config{Log: config.LogConfig{UID: true, Service: "svc"}})
	assert.NotNil(t, log)
}

