package cmd

import (
	"os"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	coreconfig "github.com/sharebite/sharebite-bot/core/config"
	coreDB "github.com/sharebite/sharebite-bot/core/database"
	domainState "github.com/sharebite/sharebite-bot/domains/convstate"
	domainMedia "github.com/sharebite/sharebite-bot/domains/media"
	domainMessaging "github.com/sharebite/sharebite-bot/domains/messaging"
	domainRateLimit "github.com/sharebite/sharebite-bot/domains/ratelimit"
	domainWebhook "github.com/sharebite/sharebite-bot/domains/webhook"
	"github.com/sharebite/sharebite-bot/infrastructure/objstore"
	"github.com/sharebite/sharebite-bot/infrastructure/telegram"
	"github.com/sharebite/sharebite-bot/infrastructure/valkey"
	"github.com/sharebite/sharebite-bot/pkg/cache"
	"github.com/sharebite/sharebite-bot/pkg/circuitbreaker"
	"github.com/sharebite/sharebite-bot/pkg/utils"
	"github.com/sharebite/sharebite-bot/repository"
	"github.com/sharebite/sharebite-bot/usecase"
)

var (
	db           *gorm.DB
	valkeyClient *valkey.Client
	stateCache   *cache.Cache[*domainState.ConversationState]
	breaker      *circuitbreaker.Breaker

	// Usecase
	limiterUsecase   domainRateLimit.IRateLimitUsecase
	stateUsecase     domainState.IStateUsecase
	messagingUsecase domainMessaging.IMessagingUsecase
	mediaUsecase     domainMedia.ITransferUsecase
	webhookUsecase   domainWebhook.IWebhookUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sharebite-bot",
	Short: "ShareBite food sharing bot",
	Long:  `Telegram bot bridging ShareBite food-sharing flows to durable storage, with webhook delivery over http.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().String("port", "", "HTTP port (overrides APP_PORT)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging (overrides APP_DEBUG)")

	_ = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.AutomaticEnv()
}

// initEnvConfig pushes flag overrides into the environment before the
// structured config is built.
func initEnvConfig() {
	if envPort := viper.GetString("port"); envPort != "" {
		_ = os.Setenv("APP_PORT", envPort)
	}
	if viper.GetBool("debug") {
		_ = os.Setenv("APP_DEBUG", "true")
	}
}

// initApp builds the dependency graph shared by all subcommands.
func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	if err := coreDB.Migrate(db); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}

	// Fast-path counter tier: shared via Valkey when enabled, otherwise
	// per-process. The gorm row store stays authoritative either way.
	var counter domainRateLimit.ICounterStore
	if cfg.Valkey.Enabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			logrus.Warnf("valkey unavailable, falling back to in-process counters: %v", err)
		}
	}
	if valkeyClient != nil {
		counter = repository.NewValkeyCounterStore(valkeyClient, cfg.RateLimit.Window)
	} else {
		counter = repository.NewMemoryCounterStore(cfg.RateLimit.Window)
	}

	breaker = circuitbreaker.New()
	stateCache = cache.New[*domainState.ConversationState]()

	transport := telegram.NewClient(telegram.Config{
		Token:   cfg.Telegram.BotToken,
		BaseURL: cfg.Telegram.APIBaseUrl,
	})

	store, err := objstore.NewLocalStorage(cfg.Paths.Media, cfg.App.BaseUrl)
	if err != nil {
		logrus.Fatalf("failed to initialize object storage: %v", err)
	}

	limiterUsecase = usecase.NewRateLimitService(
		repository.NewRateLimitGormRepository(db),
		counter,
		domainRateLimit.Config{
			MaxRequests:  cfg.RateLimit.MaxRequests,
			Window:       cfg.RateLimit.Window,
			CleanupAfter: cfg.RateLimit.CleanupAfter,
		},
	)
	stateUsecase = usecase.NewStateService(repository.NewStateGormRepository(db), stateCache)
	messagingUsecase = usecase.NewMessagingService(transport, breaker)
	mediaUsecase = usecase.NewMediaService(transport, store, cfg.Telegram.MaxPhotoSize)
	webhookUsecase = usecase.NewWebhookService(stateUsecase, limiterUsecase, messagingUsecase, mediaUsecase)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
