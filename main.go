package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/psahay/rampflow/agent"
	"github.com/psahay/rampflow/config"
	"github.com/psahay/rampflow/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "redis host:port")
	cmd.Flags().String("namespace", "rampflow", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage")
	cmd.Flags().String("chain-rpc", "http://localhost:8545", "chain json-rpc endpoint")
	cmd.Flags().Int64("chain-id", 11155111, "chain id used for signing")
	cmd.Flags().String("signer-key", "", "hex encoded signing key")
	cmd.Flags().Duration("confirmation-timeout", 60*time.Second, "bound on a single confirmation wait")
	cmd.Flags().Duration("pending-grace-delay", 5*time.Second, "delay before the one-shot pending re-check")
	cmd.Flags().Duration("monitor-interval", 15*time.Second, "pending transaction monitor interval")
	cmd.Flags().Int("history-limit", 10, "max retained history entries")
	cmd.Flags().Uint64("buy-fee-bps", 100, "default buy fee in basis points")
	cmd.Flags().Uint64("swap-fee-bps", 50, "default swap fee in basis points")
	cmd.Flags().Uint64("sell-fee-bps", 100, "default sell fee in basis points")
	cmd.Flags().Uint64("exchange-rate", 920000, "default usd to eur rate scaled by 1e6")
	cmd.Flags().String("log-level", "info", "log level")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.RedisConfig.Addr = viper.GetString("redis-addr")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.ChainConfig.RpcUrl = viper.GetString("chain-rpc")
	c.cfg.ChainConfig.ChainId = viper.GetInt64("chain-id")
	c.cfg.ChainConfig.PrivateKey = viper.GetString("signer-key")
	c.cfg.ChainConfig.ConfirmationTimeout = viper.GetDuration("confirmation-timeout")
	c.cfg.ChainConfig.PendingGraceDelay = viper.GetDuration("pending-grace-delay")
	c.cfg.ChainConfig.MonitorInterval = viper.GetDuration("monitor-interval")
	c.cfg.HistoryLimit = viper.GetInt("history-limit")
	c.cfg.FeeConfig.BuyFeeBps = viper.GetUint64("buy-fee-bps")
	c.cfg.FeeConfig.SwapFeeBps = viper.GetUint64("swap-fee-bps")
	c.cfg.FeeConfig.SellFeeBps = viper.GetUint64("sell-fee-bps")
	c.cfg.FeeConfig.ExchangeRate = viper.GetUint64("exchange-rate")
	c.cfg.LogLevel = viper.GetString("log-level")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	logger.Configure(c.cfg.LogLevel)
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	err = agent.Start()
	if err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "rampflow",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
