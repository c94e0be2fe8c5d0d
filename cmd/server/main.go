package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fitcoach-backend/internal/ai"
	"fitcoach-backend/internal/api"
	"fitcoach-backend/internal/cache"
	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/config"
	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/crypto"
	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/events"
	"fitcoach-backend/internal/mailer"
	"fitcoach-backend/internal/middleware"
	"fitcoach-backend/internal/payments"
)

func main() {
	// --- 1. Environment and logger ---
	// .env is a development convenience; release deployments set variables directly.
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}
	}

	var zapLogger *zap.Logger
	var err error
	if strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 2. Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}

	// --- 3. Firebase Admin SDK (Firestore and Auth) ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()
	if err := db.InitFirestore(initCtx, appConfig, zapLogger); err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("Firestore or Firebase Auth client is nil after initialization")
	}

	// --- 4. Repositories, catalog and field encryption ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	workoutRepo := db.NewFirestoreWorkoutRepository(firestoreClient)
	recordRepo := db.NewFirestorePersonalRecordRepository(firestoreClient)
	routineRepo := db.NewFirestoreRoutineRepository(firestoreClient)
	nutritionRepo := db.NewFirestoreNutritionRepository(firestoreClient)
	progressRepo := db.NewFirestoreProgressRepository(firestoreClient)
	trainerRepo := db.NewFirestoreTrainerRepository(firestoreClient)
	assignedRepo := db.NewFirestoreAssignedRoutineRepository(firestoreClient)
	challengeRepo := db.NewFirestoreChallengeRepository(firestoreClient)
	notificationRepo := db.NewFirestoreNotificationRepository(firestoreClient)

	exerciseCatalog, err := catalog.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load exercise catalog", zap.Error(err))
	}
	cipher, err := crypto.NewFieldCipher(appConfig.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("Invalid ENCRYPTION_KEY", zap.Error(err))
	}

	// --- 5. Cache ---
	var aiCache cache.Cache = cache.Noop{}
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Redis unavailable, AI responses will not be cached", zap.Error(err))
		} else {
			aiCache = redisCache
			defer redisCache.Close()
		}
	}

	// --- 6. Notifications, mail and the event bus ---
	notificationService := core.NewNotificationService(notificationRepo, zapLogger)

	var mail events.Mailer
	if appConfig.SMTPUser != "" {
		smtpMailer, err := mailer.New(mailer.Config{
			Host: appConfig.SMTPHost,
			Port: appConfig.SMTPPort,
			User: appConfig.SMTPUser,
			Pass: appConfig.SMTPPass,
			From: appConfig.MailFrom,
		})
		if err != nil {
			zapLogger.Warn("SMTP mailer disabled", zap.Error(err))
		} else {
			mail = smtpMailer
		}
	}
	consumer := events.NewNotificationConsumer(notificationService, userRepo, mail, zapLogger)

	consumeCtx, stopConsuming := context.WithCancel(context.Background())
	defer stopConsuming()

	var publisher events.Publisher
	if appConfig.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(events.RabbitMQConfig{URL: appConfig.RabbitMQURL, Queue: appConfig.EventsQueue}, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		if err := rabbit.Consume(consumeCtx, consumer.Handle); err != nil {
			zapLogger.Fatal("Failed to start event consumer", zap.Error(err))
		}
		publisher = rabbit
	} else {
		zapLogger.Info("RABBITMQ_URL not set, dispatching events in-process")
		publisher = events.NewDispatcher(consumer.Handle, 4, 256, zapLogger)
	}

	// --- 7. AI providers: Gemini first, OpenRouter as fallback ---
	var generators []ai.Generator
	if gemini, err := ai.NewGeminiClient(initCtx, appConfig.GeminiAPIKey, appConfig.GeminiModel); err == nil {
		generators = append(generators, gemini)
	} else if !errors.Is(err, ai.ErrNotConfigured) {
		zapLogger.Warn("Gemini provider disabled", zap.Error(err))
	}
	orCfg := ai.DefaultOpenRouterConfig(appConfig.OpenRouterAPIKey)
	if appConfig.OpenRouterBaseURL != "" {
		orCfg.BaseURL = appConfig.OpenRouterBaseURL
	}
	if appConfig.OpenRouterModel != "" {
		orCfg.Model = appConfig.OpenRouterModel
	}
	orCfg.SiteURL = firstOrigin(appConfig.ClientURL)
	if openRouter, err := ai.NewOpenRouterClient(orCfg); err == nil {
		generators = append(generators, openRouter)
	} else if !errors.Is(err, ai.ErrNotConfigured) {
		zapLogger.Warn("OpenRouter provider disabled", zap.Error(err))
	}
	var generator ai.Generator
	if len(generators) > 0 {
		chain := ai.NewChain(zapLogger, generators...)
		zapLogger.Info("AI generation enabled", zap.String("providers", chain.Name()))
		generator = chain
	}

	// --- 8. Payment providers ---
	clientURL := firstOrigin(appConfig.ClientURL)
	var stripeProvider core.StripeProvider
	if stripeClient, err := payments.NewStripeClient(payments.StripeConfig{
		SecretKey:     appConfig.StripeSecretKey,
		WebhookSecret: appConfig.StripeWebhookSecret,
		PriceID:       appConfig.StripePriceID,
		SuccessURL:    clientURL + "/billing/success",
		CancelURL:     clientURL + "/billing/cancel",
		PortalReturn:  clientURL + "/settings",
	}); err == nil {
		stripeProvider = stripeClient
	}
	var mercadoPagoProvider core.MercadoPagoProvider
	if mpClient, err := payments.NewMercadoPagoClient(payments.MercadoPagoConfig{
		AccessToken:     appConfig.MercadoPagoAccessToken,
		BaseURL:         appConfig.MercadoPagoBaseURL,
		PriceARS:        appConfig.PremiumPriceARS,
		SuccessURL:      clientURL + "/billing/success",
		FailureURL:      clientURL + "/billing/cancel",
		NotificationURL: appConfig.MercadoPagoNotificationURL,
	}); err == nil {
		mercadoPagoProvider = mpClient
	}

	// --- 9. Services ---
	userService := core.NewUserService(userRepo, cipher, zapLogger)
	trainerService := core.NewTrainerService(trainerRepo, userRepo, workoutRepo, assignedRepo, challengeRepo, publisher, zapLogger)
	challengeService := core.NewChallengeService(challengeRepo, trainerRepo, userRepo, trainerService, zapLogger)
	progressService := core.NewProgressService(workoutRepo, routineRepo, progressRepo, zapLogger)
	services := api.Services{
		Users:   userService,
		Weights: core.NewWeightService(userRepo, recordRepo, exerciseCatalog, zapLogger),
		Workouts: core.NewWorkoutService(core.WorkoutDeps{
			Workouts:        workoutRepo,
			PersonalRecords: recordRepo,
			Users:           userRepo,
			Routines:        routineRepo,
			Catalog:         exerciseCatalog,
			Progress:        progressService,
			Trainers:        trainerService,
			Challenges:      challengeService,
			Publisher:       publisher,
			Logger:          zapLogger,
		}),
		Routines:        core.NewRoutineService(userRepo, routineRepo, recordRepo, exerciseCatalog, generator, aiCache, appConfig.AICacheTTL, zapLogger),
		Nutrition:       core.NewNutritionService(userRepo, routineRepo, nutritionRepo, generator, aiCache, appConfig.AICacheTTL, zapLogger),
		Progress:        progressService,
		Trainers:        trainerService,
		AssignedRoutine: core.NewAssignedRoutineService(assignedRepo, trainerRepo, userRepo, recordRepo, exerciseCatalog, publisher, zapLogger),
		Challenges:      challengeService,
		Notifications:   notificationService,
		Billing:         core.NewBillingService(userRepo, stripeProvider, mercadoPagoProvider, publisher, zapLogger),
		Catalog:         exerciseCatalog,
	}

	// --- 10. Gin engine, middleware and routes ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))
	if appConfig.ClientURL == "" {
		zapLogger.Warn("CLIENT_URL is not configured; CORS allows every origin")
	}

	api.SetupRoutes(router, appConfig, zapLogger, firebaseAuthClient, services)

	// --- 11. HTTP server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// AI generation can take tens of seconds.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 12. Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Publishers drain after the server stops accepting requests.
	stopConsuming()
	if err := publisher.Close(); err != nil {
		zapLogger.Warn("Failed to close event publisher", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		zapLogger.Warn("Failed to close Firestore client", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully")
}

func firstOrigin(clientURL string) string {
	origin, _, _ := strings.Cut(clientURL, ",")
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}
