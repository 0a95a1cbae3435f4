package bootstrap

import (
	"context"
	"time"

	"bcct-chatbot-be/internal/config"
	"bcct-chatbot-be/internal/controller"
	"bcct-chatbot-be/internal/handler"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/pkg/serverutils"
	"bcct-chatbot-be/internal/repository/cache"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/implementation"
	"bcct-chatbot-be/internal/repository/memory"
	"bcct-chatbot-be/internal/repository/unitofwork"
	"bcct-chatbot-be/internal/service"
	"bcct-chatbot-be/internal/websocket"
	"bcct-chatbot-be/pkg/conversation/flow"
	"bcct-chatbot-be/pkg/conversation/response"
	"bcct-chatbot-be/pkg/conversation/session"
	"bcct-chatbot-be/pkg/lexicon"
	pktNats "bcct-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatbotController controller.IChatbotController
	ChatWsHandler     *handler.ChatWsHandler

	// Background workers, started by main.
	AuditService service.IAuditService
	WebSocketHub *websocket.Hub
	RateLimiter  *serverutils.RateLimiter

	ChatbotService service.IChatbotService
	Logger         logger.ILogger

	closers []func()
}

// NewContainer builds the object graph. db may be nil: the in-memory data
// provider with seed data is used instead. Redis and NATS are optional too.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.ILogger) *Container {
	c := &Container{Logger: log}
	lex := lexicon.MustDefault()

	// 1. Data provider
	var provider contract.DataProvider
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		provider = implementation.NewContractDataProvider(db, lex, log)
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Warn("Container", "No database configured, using in-memory seed data", nil)
		provider = memory.NewSeededContractDataProvider(lex, time.Now)
	}

	// 2. Infrastructure
	rdb := c.connectRedis(cfg.App.RedisURL)
	if rdb != nil && cfg.Cache.QueryTTL > 0 {
		provider = cache.NewQueryCache(provider, rdb, cfg.Cache.QueryTTL, log)
	}

	var exporter service.EventExporter
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Warn("Container", "Failed to connect to NATS, audit export disabled", map[string]interface{}{"error": err.Error()})
		} else {
			exporter = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	c.AuditService = service.NewAuditService(pubSub, cfg.Audit.Topic, uowFactory, exporter, log)

	// 4. Conversation core
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.PurgeInterval)
	c.ChatbotService = service.NewChatbotService(
		session.NewManager(sessionRepo, log),
		flow.NewController(lex, provider, log, flow.WithAuditPublisher(c.AuditService)),
		response.NewAssembler(nil),
		log,
	)

	// 5. Surfaces
	c.RateLimiter = serverutils.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	c.WebSocketHub = websocket.NewHub(rdb, log)
	c.ChatbotController = controller.NewChatbotController(c.ChatbotService, c.RateLimiter)
	c.ChatWsHandler = handler.NewChatWsHandler(c.ChatbotService, c.WebSocketHub, c.RateLimiter, log)

	return c
}

func (c *Container) connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		c.Logger.Warn("Container", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("Container", "Redis unreachable, query cache and cluster fan-out disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return rdb
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
