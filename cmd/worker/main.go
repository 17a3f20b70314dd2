package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/config"
	"github.com/unclebandit/voicecampaign-backend/internal/db"
	"github.com/unclebandit/voicecampaign-backend/internal/logger"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
)

// The worker records call results reported by the dialer. With AMQP_URL set
// it consumes the call_results queue; otherwise it reads one JSON result per
// line from stdin, which is handy for replaying a dialer log.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := repository.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			zl.Fatal("connect", zap.Error(err))
		}
		defer conn.Close()
		store = repository.NewPostgresStore(conn)
	} else {
		zl.Warn("⚠️ DATABASE_URL not set, results are kept in memory only")
	}

	var q queue.Queue
	if cfg.AMQPURL != "" {
		aq, err := queue.DialAMQP(cfg.AMQPURL, zl)
		if err != nil {
			zl.Fatal("connect to RabbitMQ", zap.Error(err))
		}
		defer aq.Close()
		q = aq
	}

	calls := service.NewCallHistoryService(store.CallHistory, store.Campaigns, q, zl)

	if q != nil {
		worker := service.NewWorker(calls, nil, zl)
		if err := q.Subscribe(queue.TopicCallResults, worker.Handle); err != nil {
			zl.Fatal("subscribe", zap.Error(err))
		}
		zl.Info("Worker running, waiting for messages...", zap.String("queue", queue.TopicCallResults))
		<-ctx.Done()
		return
	}

	jobs := make(chan model.CallHistoryInput)
	worker := service.NewWorker(calls, jobs, zl)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	if err := feed(ctx, os.Stdin, jobs, zl); err != nil {
		zl.Error("reading results", zap.Error(err))
	}
	close(jobs)
	<-done
}

// feed decodes newline-delimited results from r onto jobs. Malformed lines
// are logged and skipped.
func feed(ctx context.Context, r io.Reader, jobs chan<- model.CallHistoryInput, log *zap.Logger) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var job model.CallHistoryInput
		if err := json.Unmarshal(sc.Bytes(), &job); err != nil {
			log.Warn("Invalid job", zap.Int("line", line), zap.Error(err))
			continue
		}
		select {
		case jobs <- job:
		case <-ctx.Done():
			return nil
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
