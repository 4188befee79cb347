package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/handlers"
	"github.com/krishisetu/krishisetu/internal/middleware"
	"github.com/krishisetu/krishisetu/internal/otp"
	"github.com/krishisetu/krishisetu/internal/repository"
	"github.com/krishisetu/krishisetu/internal/service"
	"github.com/krishisetu/krishisetu/internal/sms"
	"github.com/krishisetu/krishisetu/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	var redisClient *redis.Client
	if needsRedis(cfg) {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		logger.Info("Redis client initialized")
	}

	var sender sms.Sender
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		sender = sms.NewTwilioSender(&cfg.Twilio, logger)
		logger.Info("Twilio SMS sender initialized")
	} else {
		sender = sms.NewLogSender(logger)
		logger.Warn("Twilio not configured, SMS messages will be logged only")
	}

	otpStore := newOTPStore(cfg, redisClient, dynamoClient, logger)
	otpService := otp.NewService(otpStore, sender, &cfg.OTP, logger)

	jwtService, err := service.NewJWTService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize JWT service")
	}

	var refreshStore repository.RefreshTokenStore
	if redisClient != nil {
		refreshStore = repository.NewRedisRefreshTokenStore(redisClient, logger)
	} else {
		refreshStore = repository.NewDynamoRefreshTokenStore(dynamoClient, cfg.DynamoDB.TableName, logger)
	}

	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	uploader := storage.NewS3Uploader(s3Client, &cfg.S3, logger)
	weatherService := service.NewWeatherService(cfg.Weather.BaseURL, sender, logger)

	otpHandlers := handlers.NewOTPHandlers(otpService, logger)
	authHandlers := handlers.NewAuthHandlers(jwtService, refreshStore, userRepo, logger)
	userHandlers := handlers.NewUserHandlers(userRepo, uploader, logger)
	uploadHandlers := handlers.NewUploadHandlers(userRepo, uploader, logger)
	weatherHandlers := handlers.NewWeatherHandlers(weatherService, logger)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, logger)
	router := setupRouter(otpHandlers, authHandlers, userHandlers, uploadHandlers, weatherHandlers, authMiddleware, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5001", "https://agriculture-mrrg.onrender.com"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	if closer, ok := otpStore.(*otp.MemoryStore); ok {
		closer.Close()
	}

	logger.Info("Server exited")
}

func loadAWSConfig(cfg *config.Config) (aws.Config, error) {
	if cfg.DynamoDB.Endpoint != "" {
		return awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(svc, region string, options ...interface{}) (aws.Endpoint, error) {
					if svc == dynamodb.ServiceID {
						return aws.Endpoint{
							URL:           cfg.DynamoDB.Endpoint,
							SigningRegion: cfg.DynamoDB.Region,
						}, nil
					}
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				})),
		)
	}

	return awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.DynamoDB.Region))
}

// Redis is dialed only when the OTP store runs on it; refresh tokens
// then share the same client, otherwise they live in DynamoDB.
func needsRedis(cfg *config.Config) bool {
	return cfg.OTP.Store == "redis"
}

func newOTPStore(cfg *config.Config, redisClient *redis.Client, dynamoClient *dynamodb.Client, logger *logrus.Logger) otp.Store {
	switch cfg.OTP.Store {
	case "redis":
		logger.Info("Using Redis OTP store")
		return otp.NewRedisStore(redisClient, logger)
	case "dynamodb":
		logger.Info("Using DynamoDB OTP store")
		return otp.NewDynamoStore(dynamoClient, cfg.DynamoDB.TableName, logger)
	default:
		logger.Info("Using in-memory OTP store")
		return otp.NewMemoryStore(cfg.OTP.SweepInterval)
	}
}

func setupRouter(
	otpHandlers *handlers.OTPHandlers,
	authHandlers *handlers.AuthHandlers,
	userHandlers *handlers.UserHandlers,
	uploadHandlers *handlers.UploadHandlers,
	weatherHandlers *handlers.WeatherHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods("GET", "OPTIONS")

	otpRouter := router.PathPrefix("/otp").Subrouter()
	otpRouter.HandleFunc("/otp-generate", otpHandlers.GenerateOTP).Methods("POST", "OPTIONS")
	otpRouter.HandleFunc("/otp-verify", otpHandlers.VerifyOTP).Methods("POST", "OPTIONS")

	api := router.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", authHandlers.Signup).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login-email", authHandlers.LoginWithEmail).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login-phone", authHandlers.LoginWithPhone).Methods("POST", "OPTIONS")
	auth.HandleFunc("/logout", authHandlers.Logout).Methods("POST", "OPTIONS")
	auth.HandleFunc("/refresh", authHandlers.RefreshToken).Methods("POST", "OPTIONS")

	weather := api.PathPrefix("/weather").Subrouter()
	weather.HandleFunc("/forecast", weatherHandlers.GetForecast).Methods("GET", "OPTIONS")

	protectedAuth := api.PathPrefix("/auth").Subrouter()
	protectedAuth.Use(authMiddleware.RequireAuth)
	protectedAuth.HandleFunc("/update-password", authHandlers.UpdatePassword).Methods("PUT")
	protectedAuth.HandleFunc("/update-profile-pic", userHandlers.UpdateProfilePic).Methods("PUT")

	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware.RequireAuth)
	users.HandleFunc("/profile", userHandlers.UpdateProfile).Methods("PUT")

	upload := api.PathPrefix("/upload").Subrouter()
	upload.Use(authMiddleware.RequireAuth)
	upload.HandleFunc("/upload-doc", uploadHandlers.UploadDoc).Methods("POST")

	return router
}
