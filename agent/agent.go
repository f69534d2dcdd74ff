package agent

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/psahay/rampflow/cache"
	"github.com/psahay/rampflow/chain"
	"github.com/psahay/rampflow/config"
	"github.com/psahay/rampflow/executor"
	"github.com/psahay/rampflow/flow"
	"github.com/psahay/rampflow/history"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"github.com/psahay/rampflow/persistence/inmem"
	rd "github.com/psahay/rampflow/persistence/redis"
	"github.com/psahay/rampflow/rest"
	"github.com/psahay/rampflow/util"
)

const DEFAULT_MONITOR_INTERVAL = 15 * time.Second

type Agent struct {
	Config         config.Config
	flowStorage    persistence.FlowStateStorage
	historyStorage persistence.HistoryStorage
	feeStorage     persistence.FeeScheduleStorage
	ledger         *history.Ledger
	chainClient    chain.NodeClient
	watcher        *chain.Watcher
	sequencer      *flow.Sequencer
	pendingMonitor *flow.PendingMonitor
	httpServer     *rest.Server
	feeCache       *cache.FeeScheduleCache
	shutdown       bool
	shutdownLock   sync.Mutex
	wg             sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupLedger,
		a.setupChain,
		a.setupSequencer,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addr:      a.Config.RedisConfig.Addr,
			Namespace: a.Config.RedisConfig.Namespace,
			Password:  a.Config.RedisConfig.Password,
			PoolSize:  a.Config.RedisConfig.PoolSize,
		}
		a.flowStorage = rd.NewRedisFlowDao(rdConf, util.NewJsonEncoderDecoder[model.FlowContext]())
		a.historyStorage = rd.NewRedisHistoryDao(rdConf, util.NewJsonEncoderDecoder[model.HistoryEntry]())
		a.feeStorage = rd.NewRedisFeeDao(rdConf, util.NewJsonEncoderDecoder[model.FeeSchedule]())
	default:
		storage := inmem.NewStorage()
		a.flowStorage = storage
		a.historyStorage = storage
		a.feeStorage = storage
	}
	a.feeCache = cache.NewFeeScheduleCache(a.feeStorage, model.FeeSchedule{
		BuyFeeBps:    a.Config.FeeConfig.BuyFeeBps,
		SwapFeeBps:   a.Config.FeeConfig.SwapFeeBps,
		SellFeeBps:   a.Config.FeeConfig.SellFeeBps,
		ExchangeRate: a.Config.FeeConfig.ExchangeRate,
	})
	return nil
}

func (a *Agent) setupLedger() error {
	a.ledger = history.NewLedger(a.historyStorage, a.Config.HistoryLimit)
	return nil
}

func (a *Agent) setupChain() error {
	key, err := crypto.HexToECDSA(a.Config.ChainConfig.PrivateKey)
	if err != nil {
		return err
	}
	a.chainClient, err = chain.NewEthClient(a.Config.ChainConfig.RpcUrl, a.Config.ChainConfig.ChainId, key)
	if err != nil {
		return err
	}
	a.watcher = chain.NewWatcher(a.chainClient, a.Config.ChainConfig.ConfirmationTimeout)
	return nil
}

func (a *Agent) setupSequencer() error {
	stepExecutor := executor.NewStepExecutor(a.chainClient)
	a.sequencer = flow.NewSequencer(a.flowStorage, a.ledger, stepExecutor, a.watcher, a.Config.ChainConfig.PendingGraceDelay)
	if err := a.sequencer.Load(context.Background()); err != nil {
		return err
	}
	interval := a.Config.ChainConfig.MonitorInterval
	if interval <= 0 {
		interval = DEFAULT_MONITOR_INTERVAL
	}
	a.pendingMonitor = flow.NewPendingMonitor(a.ledger, a.watcher, interval, &a.wg)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.sequencer, a.ledger, a.feeCache)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	a.pendingMonitor.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		func() error {
			a.pendingMonitor.Stop()
			return nil
		},
		a.httpServer.Stop,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
