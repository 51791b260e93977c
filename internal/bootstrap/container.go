package bootstrap

import (
	"context"
	"log"
	"strings"

	"product-notes-be/internal/config"
	"product-notes-be/internal/controller"
	"product-notes-be/internal/handler"
	"product-notes-be/internal/pkg/logger"
	"product-notes-be/internal/pkg/serverutils"
	"product-notes-be/internal/repository/memory"
	"product-notes-be/internal/repository/unitofwork"
	"product-notes-be/internal/service"
	internalWS "product-notes-be/internal/websocket"
	"product-notes-be/pkg/productcache"
	"product-notes-be/pkg/shopify"

	pktNats "product-notes-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ProductNoteController controller.IProductNoteController
	WebhookController     controller.IWebhookController
	SystemController      controller.ISystemController
	NoteFeedController    controller.INoteFeedController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	NoteEventHandler *handler.NoteEventHandler
	NatsSubscriber   *pktNats.Subscriber
	NoteFeedHub      *internalWS.Hub

	closers []func()
}

// NewContainer wires every dependency. db may be nil when the memory store
// driver is selected.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var uowFactory unitofwork.RepositoryFactory
	if cfg.Database.Driver == "memory" || db == nil {
		log.Println("[INFO] Using Note Store: MEMORY")
		uowFactory = memory.NewProductNoteStore()
	} else {
		log.Println("[INFO] Using Note Store: POSTGRES")
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	c := &Container{}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Shopify Admin API
	shopifyClient := shopify.NewClient(shopify.Config{
		APIVersion:   cfg.Shopify.APIVersion,
		AccessTokens: cfg.Shopify.AccessTokens,
		Timeout:      cfg.Shopify.Timeout,
		MetafieldNS:  cfg.Shopify.MetafieldNS,
		MetafieldKey: cfg.Shopify.MetafieldKey,
	})
	if len(cfg.Shopify.AccessTokens) == 0 {
		log.Println("[WARN] SHOPIFY_ACCESS_TOKENS is empty; product enrichment will use placeholders")
	}

	var (
		productCache productcache.Cache
		rdb          *redis.Client
	)
	if strings.EqualFold(cfg.Cache.Driver, "redis") {
		rdb = productcache.NewRedisClient(cfg.Cache.RedisURL)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { rdb.Close() })
		productCache = productcache.NewRedisCache(rdb, cfg.Cache.TTL)
		log.Println("[INFO] Using Product Cache: REDIS")
	} else {
		productCache = productcache.NewMemoryCache(cfg.Cache.TTL)
		log.Println("[INFO] Using Product Cache: MEMORY")
	}
	catalog := productcache.NewCachedCatalog(shopifyClient, productCache)

	// 4. NATS (optional)
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.NatsSubscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 5. Live note feed (cross-instance over Redis when configured)
	c.NoteFeedHub = internalWS.NewHub(rdb, sysLogger)

	// 6. Services
	var syncPublisher service.IPublisherService
	if cfg.Notes.SyncOnWrite {
		syncPublisher = service.NewPublisherService(cfg.Notes.SyncTopic, pubSub)
	}

	productNoteService := service.NewProductNoteService(
		uowFactory,
		catalog,
		shopifyClient,
		syncPublisher,
		service.NewEventFanOut(eventPublisher, c.NoteFeedHub),
		sysLogger,
		cfg.Notes,
	)
	webhookService := service.NewWebhookService(sysLogger, logger.NewIsolatedLogger("logs/webhooks.log"))

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Notes.SyncTopic, shopifyClient, sysLogger)
	c.NoteEventHandler = handler.NewNoteEventHandler(logger.NewIsolatedLogger("logs/note_audit.log"))

	// 7. Controllers
	sessionAuth := serverutils.SessionTokenMiddleware(cfg.Shopify.APIKey, cfg.Shopify.APISecret)
	c.ProductNoteController = controller.NewProductNoteController(productNoteService, sessionAuth)
	c.NoteFeedController = controller.NewNoteFeedController(c.NoteFeedHub, sessionAuth, sysLogger)
	c.WebhookController = controller.NewWebhookController(webhookService)
	c.SystemController = controller.NewSystemController()

	return c
}

// StartBackground launches the metafield sync consumer, the note feed relay
// and, when NATS is configured, the note audit subscription.
func (c *Container) StartBackground(ctx context.Context) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}
	go c.NoteFeedHub.Run(ctx)

	if c.NatsSubscriber != nil {
		subject := pktNats.Subject(">")
		if err := c.NatsSubscriber.Subscribe(ctx, subject, "note-audit", c.NoteEventHandler.Handle); err != nil {
			log.Printf("[WARN] Note audit subscription failed: %v", err)
		}
	}
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
