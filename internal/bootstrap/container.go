package bootstrap

import (
	"context"
	"fmt"
	"log"

	"uml-nli-be/internal/config"
	"uml-nli-be/internal/controller"
	"uml-nli-be/internal/handler"
	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/internal/repository/contract"
	"uml-nli-be/internal/repository/implementation"
	"uml-nli-be/internal/repository/memory"
	"uml-nli-be/internal/service"
	"uml-nli-be/internal/websocket"
	"uml-nli-be/pkg/dispatch"
	"uml-nli-be/pkg/navigation"
	"uml-nli-be/pkg/nli"

	pktNats "uml-nli-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController      controller.ISessionController
	OperationLogController controller.IOperationLogController // nil without a database
	EditorSocketHandler    *handler.EditorSocketHandler

	// Background services, run by main
	ConsumerService   service.IConsumerService
	TranscriptService *service.TranscriptService // nil without NATS
	WebSocketHub      *websocket.Hub

	Dispatcher *dispatch.Dispatcher
	Logger     *logger.ZapLogger

	closers []func()
}

// NewContainer wires the application. db may be nil; Redis and NATS are
// optional and skipped when their URL is empty or unreachable.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var eventPublisher service.EventPublisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 4. Repositories
	sessionRepo := memory.NewSessionRepository(cfg.Store.SessionTTL)
	historyRepo, err := newHistoryRepository(cfg.Store, db, rdb)
	if err != nil {
		return nil, err
	}
	var opLog contract.OperationLogRepository
	if db != nil {
		opLog = implementation.NewOperationLogRepository(db)
	}

	// 5. Dispatcher
	nliClient := nli.NewClient(cfg.Nli.ServerURL, cfg.Nli.RequestTimeout)
	nav := navigation.NewHistory()
	sessionRepo.OnEvicted(nav.Forget)

	publisherService := service.NewPublisherService(cfg.App.OperationsTopic, pubSub)
	c.Dispatcher = dispatch.New(
		nliClient,
		sessionRepo,
		historyRepo,
		nav,
		publisherService,
		dispatch.Config{
			PingTimeout:  cfg.Nli.PingTimeout,
			RefreshDelay: cfg.Nli.RefreshDelay,
		},
		sysLogger.StdLogger("dispatch"),
	)

	// 6. WebSocket Hub
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 7. Services
	sessionService := service.NewSessionService(c.Dispatcher, sessionRepo, c.WebSocketHub, nliClient, sysLogger)
	bridge := service.NewHostBridge(sessionService, wsLogger)
	c.WebSocketHub.SetInbound(bridge)
	c.WebSocketHub.OnConnect(func(sessionID string) {
		// An attached editor keeps its session alive until it disconnects.
		if !sessionRepo.Hold(sessionID) {
			sessionRepo.LoadOrCreate(sessionID)
			sessionRepo.Hold(sessionID)
		}
		if err := sessionService.RequestSnapshot(context.Background(), sessionID); err != nil {
			wsLogger.Warn("Hub", "Initial snapshot request failed", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
	})
	c.WebSocketHub.OnDisconnect(func(sessionID string) {
		sessionService.Close(context.Background(), sessionID)
	})

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.OperationsTopic, c.WebSocketHub, eventPublisher, opLog, sysLogger)
	if natsSub != nil {
		c.TranscriptService = service.NewTranscriptService(natsSub, sessionService, sysLogger)
	}

	// 8. Controllers
	c.SessionController = controller.NewSessionController(sessionService, cfg.Nli.PingTimeout)
	if opLog != nil {
		c.OperationLogController = controller.NewOperationLogController(service.NewOperationLogService(opLog))
	}
	c.EditorSocketHandler = handler.NewEditorSocketHandler(
		sessionService,
		eventPublisher,
		c.WebSocketHub,
		wsLogger,
		cfg.App.Environment != "production",
	)

	// Pending snapshot refreshes and bridge queries stop before the bus closes.
	c.closers = append(c.closers, bridge.Wait, c.Dispatcher.Close)

	log.Printf("[INFO] NLI server: %s, history store: %s", cfg.Nli.ServerURL, cfg.Store.HistoryStore)
	return c, nil
}

func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}

func newHistoryRepository(cfg config.StoreConfig, db *gorm.DB, rdb *redis.Client) (contract.QueryHistoryRepository, error) {
	switch cfg.HistoryStore {
	case "", "memory":
		return memory.NewQueryHistoryRepository(cfg.HistoryTTL), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("history store %q needs a reachable REDIS_URL", cfg.HistoryStore)
		}
		return implementation.NewRedisQueryHistoryRepository(rdb, cfg.HistoryTTL), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("history store %q needs DB_CONNECTION_STRING", cfg.HistoryStore)
		}
		return implementation.NewQueryHistoryRepository(db), nil
	}
	return nil, fmt.Errorf("unknown history store %q", cfg.HistoryStore)
}

// Close releases everything the container opened, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
