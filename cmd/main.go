package main

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"reconciliation-service/config"
	"reconciliation-service/internal/module/reconciliation/handler"
	"reconciliation-service/internal/module/reconciliation/repositories"
	"reconciliation-service/internal/module/reconciliation/usecases"
	"reconciliation-service/internal/pkg/database"
	"reconciliation-service/internal/pkg/http"
	"reconciliation-service/internal/pkg/httpclient"
	log_internal "reconciliation-service/internal/pkg/log"
	"reconciliation-service/internal/pkg/messagestream"
	"reconciliation-service/internal/pkg/middleware"
	"reconciliation-service/internal/pkg/redis"
	"reconciliation-service/internal/pkg/scheduler"
	router "reconciliation-service/internal/route"
)

func main() {
	cfg := config.InitConfig()

	app, messageRouters := initService(cfg)

	for _, r := range messageRouters {
		ctx := context.Background()
		go func(r *message.Router) {
			err := r.Run(ctx)
			if err != nil {
				log.Fatal(err)
			}
		}(r)
	}

	// start http server
	http.StartHttpServer(app, cfg.HttpServer.Port)
}

func initService(cfg *config.Config) (*fiber.App, []*message.Router) {

	// init database
	db := database.GetConnection(&cfg.Database)
	// init redis
	redisClient := redis.SetupClient(&cfg.Redis)
	// init logger
	logZap := log_internal.SetupLogger()
	log_internal.Init(logZap)
	logger := log_internal.GetLogger()
	// init http client
	cb := httpclient.InitCircuitBreaker(&cfg.HttpClient, cfg.HttpClient.Type)
	httpClient := httpclient.InitHttpClient(&cfg.HttpClient, cb)
	// init distributed lock
	locker := redsync.New(goredis.NewPool(redisClient))

	ctx := context.Background()
	// init message stream
	amqp := messagestream.NewAmpq(&cfg.MessageStream)

	// Init Subscriber
	subscriber, err := amqp.NewSubscriber()
	if err != nil {
		logger.Error(ctx, "Failed to create subscriber", err)
	}

	// Init Publisher
	publisher, err := amqp.NewPublisher()
	if err != nil {
		logger.Error(ctx, "Failed to create publisher", err)
	}

	// init scheduler
	sched := &scheduler.Scheduler{Log: logger}
	schedulerClient := sched.InitClient(&cfg.Redis)

	reconciliationRepo := repositories.New(db, logger, httpClient, redisClient, locker, schedulerClient, cfg)
	reconciliationUsecase := usecases.New(reconciliationRepo, logger, publisher, cfg)
	m := &middleware.Middleware{
		Log: logZap,
	}

	v := validator.New()
	reconciliationHandler := &handler.ReconciliationHandler{
		Log:       logZap,
		Validator: v,
		Usecase:   reconciliationUsecase,
		Publish:   publisher,
	}

	var messageRouters []*message.Router

	paymentCallbackRouter, err := messagestream.NewRouter(publisher, "payment_callback_poisoned", "payment_callback_handler", "payment_callback", subscriber, reconciliationHandler.ConsumePaymentCallbackQueue)
	if err != nil {
		logger.Error(ctx, "Failed to create payment_callback router", err)
	}

	messageRouters = append(messageRouters, paymentCallbackRouter)

	// retry task worker + monitoring
	go sched.StartHandler(&cfg.Redis,
		[]string{scheduler.TypeRetryPaymentRecord},
		[]func(ctx context.Context, t *asynq.Task) error{reconciliationHandler.RetryPaymentRecord},
	)
	go sched.StartMonitoring(&cfg.Redis)

	serverHttp := http.SetupHttpEngine()

	r := router.Initialize(serverHttp, reconciliationHandler, m)

	return r, messageRouters

}
