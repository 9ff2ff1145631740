package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"takaful/internal/audit"
	authhandler "takaful/internal/auth/handler"
	"takaful/internal/auth/otp"
	authservice "takaful/internal/auth/service"
	"takaful/internal/auth/sms"
	"takaful/internal/auth/token"
	"takaful/internal/branch"
	branchhandler "takaful/internal/branch/handler"
	httpapi "takaful/internal/http"
	"takaful/internal/member"
	memberhandler "takaful/internal/member/handler"
	"takaful/internal/platform/config"
	"takaful/internal/platform/httpserver"
	"takaful/internal/platform/logger"
	"takaful/internal/platform/postgres"
	"takaful/internal/platform/redis"
	"takaful/internal/ratelimit"
	reghandler "takaful/internal/registration/handler"
	regmetrics "takaful/internal/registration/metrics"
	regservice "takaful/internal/registration/service"
	regstore "takaful/internal/registration/store"
	"takaful/internal/stats"
	"takaful/internal/user"
	userhandler "takaful/internal/user/handler"
	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal feature packages; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. An empty DSN runs the service on in-memory stores, which is
	// the dev and demo mode.
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail. Events always land in the store; the worker drains them to
	// Kafka when brokers are configured.
	var auditStore audit.Store
	if db != nil {
		auditStore = audit.NewPostgres(db)
	} else {
		auditStore = audit.NewInMemory()
	}
	auditPub := audit.NewPublisher(auditStore, log)

	var kafkaSink *audit.KafkaSink
	if len(cfg.Kafka.SeedBrokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(ctx, cfg.Kafka.SeedBrokers, cfg.Kafka.AuditTopic, cfg.Kafka.TopicReplica)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()

		worker := audit.NewWorker(auditStore, kafkaSink, log, cfg.Kafka.DrainEvery, cfg.Kafka.DrainBatch)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
	}

	// Feature stores.
	var (
		registrations regstore.Store
		branches      branch.Store
		users         user.Store
		members       member.Store
	)
	if db != nil {
		registrations = regstore.NewPostgres(db)
		branches = branch.NewPostgresStore(db)
		users = user.NewPostgresStore(db)
		members = member.NewPostgresStore(db)
	} else {
		registrations = regstore.NewInMemory()
		branches = branch.NewInMemoryStore()
		users = user.NewInMemoryStore()
		members = member.NewInMemoryStore()
	}

	var otpStore otp.Store
	if redisClient != nil {
		otpStore = otp.NewRedisStore(redisClient.Client)
	} else {
		otpStore = otp.NewInMemoryStore()
		log.Warn("redis not configured, OTP codes are held in memory and lost on restart")
	}

	if err := bootstrapAdmin(ctx, users, cfg.Auth, log); err != nil {
		log.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Services.
	regSvc := regservice.New(registrations, log,
		regservice.WithMetrics(regmetrics.New()),
		regservice.WithAudit(auditPub),
		regservice.WithDirectory(users),
	)
	branchSvc := branch.NewService(branches, auditPub, log)
	userSvc := user.NewService(users, auditPub, log)
	memberSvc := member.NewService(members, log)
	tokenSvc := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.TokenIssuer, cfg.Auth.AccessTokenTTL)

	var sender authservice.Sender
	if cfg.Auth.SMSGatewayURL != "" {
		sender = sms.NewGatewaySender(cfg.Auth.SMSGatewayURL)
	} else {
		sender = sms.NewDevSender(log)
		log.Warn("SMS gateway not configured, OTP codes only appear in debug logs")
	}

	authSvc := authservice.New(otpStore, tokenSvc, memberSvc, regSvc, userSvc, auditPub, log, authservice.Config{
		OTPTTL:       cfg.Auth.OTPTTL,
		ResendWindow: cfg.Auth.OTPResendAfter,
		MaxAttempts:  cfg.Auth.OTPMaxAttempts,
	}, authservice.WithSender(sender))
	statsSvc := stats.New(registrations, branches, log)

	var limiterStore ratelimit.Store
	if redisClient != nil {
		limiterStore = ratelimit.NewRedisStore(redisClient.Client)
	} else {
		limiterStore = ratelimit.NewInMemoryStore()
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:        log,
		Verifier:      tokenSvc,
		RateLimiter:   ratelimit.NewMiddleware(limiterStore, log),
		Auth:          authhandler.New(authSvc, log),
		Registrations: reghandler.New(regSvc, log),
		Members:       memberhandler.New(memberSvc, regSvc, log),
		Branches:      branchhandler.New(branchSvc, log),
		Users:         userhandler.New(userSvc, log),
		Stats:         stats.NewHandler(statsSvc, log),
		Health: func() error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.HTTP.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.HTTP.Addr, "postgres", db != nil, "redis", redisClient != nil, "kafka", kafkaSink != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin seeds the first admin account so a fresh deployment is
// reachable. A no-op when the account already exists or no password is set.
func bootstrapAdmin(ctx context.Context, users user.Store, cfg config.AuthConfig, log *slog.Logger) error {
	if cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.FindByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	admin := &user.User{
		ID:        domain.NewUserID(),
		FullName:  "System Administrator",
		Email:     cfg.AdminEmail,
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		return err
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info("bootstrap admin created", "email", cfg.AdminEmail)
	return nil
}
