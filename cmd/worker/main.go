package main

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"webhub-checker/internal/config"
	"webhub-checker/internal/logging"
	"webhub-checker/internal/worker"
	"webhub-checker/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	envErr := godotenv.Load()

	cfg := config.LoadWorker()
	logger := logging.New(cfg.LogLevel, cfg.LogConsole)
	if envErr != nil {
		logger.Debug().Msg("no .env file loaded")
	}

	redisAddr := cfg.RedisAddr

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := retryDelay(n)
				logger.Warn().Err(err).Str("type", task.Type()).Int("attempt", n+1).Dur("retry_in", delay).Msg("task failed")
				return delay
			},
			Logger: asynqLogger{logger.With().Str("component", "asynq").Logger()},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(logger)
	mux.HandleFunc(tasks.TypeNotificationReceived, taskHandler.HandleNotificationReceivedTask)

	logger.Info().Str("commit", CommitSHA).Str("redis_addr", redisAddr).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("could not run worker")
	}
}

// retryDelay backs off exponentially from 10s, capped at one hour.
func retryDelay(n int) time.Duration {
	delay := 10 * time.Second
	maxDelay := time.Hour
	for i := 0; i < n; i++ {
		delay *= 2
		if delay > maxDelay {
			return maxDelay
		}
	}
	return delay
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
