package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"salonpro-booking/config"
	"salonpro-booking/controllers"
	"salonpro-booking/routes"
	"salonpro-booking/services"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}
	config.InitLogger(settings.LogLevel, settings.LogFormat)

	shutdownTracing, err := config.InitTracerProvider("salonpro-booking", settings.JaegerURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	db, err := config.ConnectDB(settings.DBDriver, settings.DBURL, settings.LogLevel == "debug")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	var locker services.SlotLocker = services.NoopSlotLocker{}
	if settings.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		defer rdb.Close()
		locker = services.NewRedisSlotLocker(rdb)
		log.Info().Str("addr", settings.RedisAddr).Msg("redis slot locker enabled")
	}

	notifiers := []services.Notifier{services.LogNotifier{}}
	if len(settings.KafkaBrokers) > 0 {
		kafka := services.NewKafkaNotifier(services.NewKafkaWriter(settings.KafkaBrokers, settings.KafkaTopic))
		defer kafka.Close()
		notifiers = append(notifiers, kafka)
		log.Info().Strs("brokers", settings.KafkaBrokers).Str("topic", settings.KafkaTopic).Msg("kafka notifier enabled")
	}
	if settings.TwilioSID != "" && settings.TwilioToken != "" {
		notifiers = append(notifiers, services.NewTwilioNotifier(db, services.TwilioConfig{
			AccountSID:     settings.TwilioSID,
			AuthToken:      settings.TwilioToken,
			PhoneNumber:    settings.TwilioPhone,
			WhatsAppNumber: settings.TwilioWhatsApp,
			Clock:          time.Now,
		}))
		log.Info().Msg("twilio notifier enabled")
	}
	dispatcher := services.NewEventDispatcher(256, notifiers...)
	dispatcher.Start(2)

	clock := time.Now
	catalog := services.NewCatalogResolver(db)
	offers := services.NewOfferValidator(db, clock, settings.Location)
	composer := services.NewCostComposer(db, catalog, offers, settings.Pricing, metrics)
	wallet := services.NewWalletLedger(db)
	booking := services.NewBookingService(services.BookingDeps{
		DB:       db,
		Composer: composer,
		Wallet:   wallet,
		Events:   dispatcher,
		Locker:   locker,
		Pricing:  settings.Pricing,
		Clock:    clock,
		Location: settings.Location,
		Metrics:  metrics,
	})

	reminders := services.NewReminderService(db, dispatcher, clock, settings.Location)
	if err := reminders.StartScheduler(settings.ReminderCron); err != nil {
		log.Fatal().Err(err).Msg("failed to start reminder scheduler")
	}

	if settings.PaymentWebhookSecret == "" {
		log.Warn().Msg("PAYMENT_WEBHOOK_SECRET not set, payment webhooks will be rejected")
	}
	if settings.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(routes.RouterConfig{
		JWTSecret:      settings.JWTSecret,
		WebhookSecret:  settings.PaymentWebhookSecret,
		AllowedOrigins: settings.CORSOrigins,
		Gatherer:       registry,
	}, routes.Handlers{
		Appointments: &controllers.AppointmentController{Booking: booking, Composer: composer, Location: settings.Location},
		Services:     &controllers.ServiceController{Catalog: services.NewServiceCatalog(db)},
		Offers:       &controllers.OfferController{Offers: services.NewOfferAdmin(db, settings.Location)},
		Wallets:      &controllers.WalletController{Wallet: wallet},
		Payments:     &controllers.PaymentController{Booking: booking},
		Customers:    &controllers.CustomerController{Customers: services.NewCustomerDirectory(db)},
		Salon:        &controllers.SalonController{Settings: services.NewSalonSettings(db)},
	})
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", settings.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	reminders.Stop()
	dispatcher.Close()
	if err := shutdownTracing(ctx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		log.Debug().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}
}
