package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"barbershop-backend/internal/ai"
	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/auth"
	"barbershop-backend/internal/cache"
	"barbershop-backend/internal/config"
	"barbershop-backend/internal/db"
	"barbershop-backend/internal/deposits"
	"barbershop-backend/internal/handlers"
	"barbershop-backend/internal/loyalty"
	"barbershop-backend/internal/metrics"
	"barbershop-backend/internal/middleware"
	"barbershop-backend/internal/notify"
	"barbershop-backend/internal/reminders"
	"barbershop-backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "barbershop-backend",
		}
	}

	push := notify.NewExpoClient(cfg.PushEndpoint)
	if push == nil {
		logger.Info("push notifications disabled")
	}
	dispatcher := notify.NewDispatcher(notify.NewMongoTokenSource(cols.PushTokens), push, logger)
	smsSender := notify.NewSMSSender(logger)

	aiClient := ai.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	if aiClient == nil {
		logger.Info("ai analysis disabled")
	}

	val := validation.New()

	server := &handlers.Server{
		Cfg:   cfg,
		Cols:  cols,
		Val:   val,
		Log:   logger,
		Cache: cacheStore,
	}

	appointmentsRepo := appointments.NewRepository(cols.Appointments)
	appointmentsService := appointments.NewService(appointmentsRepo)
	appointmentsHandler := appointments.NewHandler(appointmentsService, val, logger)

	depositsRepo := deposits.NewRepository(cols.Deposits)
	depositsService := deposits.NewService(depositsRepo, appointmentsRepo)
	depositsHandler := deposits.NewHandler(depositsService, val, logger)

	loyaltyRepo := loyalty.NewRepository(cols.Wallets, cols.LoyaltyEntries, cols.LoyaltyRules, cols.Users)
	loyaltyService := loyalty.NewService(loyaltyRepo, appointmentsRepo, dispatcher)
	loyaltyHandler := loyalty.NewHandler(loyaltyService, val, logger)

	remindersService := reminders.NewService(appointmentsRepo, loyaltyRepo, dispatcher, smsSender, logger, int64(cfg.ReminderBatchSize))
	remindersHandler := reminders.NewHandler(remindersService, logger)

	aiHandler := ai.NewHandler(aiClient, cols.AIScans, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	appointmentsLimiter := middleware.NewRateLimiter(cfg.RateLimitAppointments, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	aiLimiter := middleware.NewRateLimiter(cfg.RateLimitAIScan, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/users", server.CreateUser)
		api.Get("/users", server.ListUsers)
		api.Get("/users/{id}", server.GetUser)

		api.Post("/barbershops", server.CreateShop)
		api.Get("/barbershops", server.ListShops)
		api.Get("/barbershops/{id}", server.GetShop)
		api.Put("/barbershops/{id}", server.UpdateShop)

		api.Post("/barbers", server.CreateBarber)
		api.Get("/barbers", server.ListBarbers)
		api.Get("/barbers/{id}", server.GetBarber)
		api.Put("/barbers/{id}", server.UpdateBarber)
		api.Put("/barbers/{id}/status", server.UpdateBarberStatus)

		api.Post("/services", server.CreateService)
		api.Get("/services", server.ListServices)
		api.Get("/services/{id}", server.GetService)
		api.Delete("/services/{id}", server.DeleteService)

		api.With(appointmentsLimiter.Middleware).Post("/appointments", appointmentsHandler.Create)
		api.Get("/appointments", appointmentsHandler.List)
		api.Get("/appointments/{id}", appointmentsHandler.Get)
		api.Put("/appointments/{id}", appointmentsHandler.Update)
		api.Delete("/appointments/{id}", appointmentsHandler.Delete)
		api.Put("/appointments/{id}/reschedule", appointmentsHandler.Reschedule)

		api.Post("/deposits", depositsHandler.Create)
		api.Get("/deposits/{id}", depositsHandler.Get)
		api.Post("/deposits/{id}/confirm", depositsHandler.Confirm)

		api.Get("/loyalty/rules", loyaltyHandler.GetRules)
		api.Get("/loyalty/wallet/{userID}", loyaltyHandler.GetWallet)
		api.Get("/loyalty/referral-code/{userID}", loyaltyHandler.GetReferralCode)
		api.Post("/loyalty/referral", loyaltyHandler.RegisterReferral)
		api.Post("/loyalty/earn", loyaltyHandler.Earn)

		api.Post("/reminders/run", remindersHandler.Run)

		api.With(aiLimiter.Middleware).Post("/ai/haircut-scan", aiHandler.Scan)
		api.Get("/ai/scans/{userID}", aiHandler.ListScans)
		api.With(aiLimiter.Middleware).Post("/ai/edit-photo", aiHandler.Edit)

		api.Post("/push-tokens", server.RegisterPushToken)
		api.Get("/push-tokens/{userID}", server.ListPushTokens)

		api.Post("/history", server.CreateHistoryEntry)
		api.Get("/history/client/{clientID}", server.ListClientHistory)

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", server.AdminLogin)
			admin.Post("/refresh", server.AdminRefresh)
			admin.Post("/logout", server.AdminLogout)

			// chi requires middlewares before routes; login stays public,
			// everything else goes through the auth group.
			admin.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(cfg.AdminAPIKey, jwtManager))
				protected.Get("/dashboard", server.GetDashboard)
				protected.Put("/loyalty/rules", loyaltyHandler.UpdateRules)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
