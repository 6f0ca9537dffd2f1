package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"docparse-backend/internal/bootstrap"
	"docparse-backend/internal/parse"
	"docparse-backend/internal/queue"
	"docparse-backend/internal/shared/config"
	"docparse-backend/internal/shared/metrics"
	"docparse-backend/internal/shared/telemetry"
	"docparse-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 1200
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
	redisReceiveWait          = 5 * time.Second
	exportSweepInterval       = time.Hour
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	go sweepExpiredExports(ctx, app)

	switch cfg.QueueBackend {
	case "sqs":
		runSQS(ctx, cfg, app)
	default:
		runRedis(ctx, cfg, app)
	}
}

// sweepExpiredExports deletes export files past their retention window.
func sweepExpiredExports(ctx context.Context, app *bootstrap.App) {
	ticker := time.NewTicker(exportSweepInterval)
	defer ticker.Stop()
	for {
		removed, err := app.ExportService.CleanupExpired(ctx)
		if err != nil {
			telemetry.Warn("worker.export_sweep_failed", map[string]any{"error": err.Error()})
		} else if removed > 0 {
			telemetry.Info("worker.export_sweep", map[string]any{"removed": removed})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runRedis(ctx context.Context, cfg config.Config, app *bootstrap.App) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Fatal("REDIS_ADDR is required for the redis queue backend")
	}
	client := queue.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisQueueDB)

	log.Printf("worker started backend=redis list=%s", queue.TaskList)

	for {
		if ctx.Err() != nil {
			return
		}
		body, err := client.Receive(ctx, redisReceiveWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("receive message: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if body == "" {
			continue
		}
		metrics.IncParseJobsReceived()
		processRedisBody(ctx, app, body)
	}
}

// processRedisBody handles one popped task. BRPOP already removed the
// message, so unrecoverable payloads are only counted, never requeued.
func processRedisBody(ctx context.Context, app *bootstrap.App, body string) {
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := map[string]any{
			"body_len": meta.BodyLen,
			"error":    err.Error(),
		}
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		telemetry.Error("worker.parse.decode_failed", fields)
		metrics.IncParseJobsDeletedUnrecoverable()
		return
	}

	telemetry.Info("worker.parse.received", map[string]any{
		"document_id": decoded.DocumentID,
		"request_id":  decoded.RequestID,
	})

	ctxWithParsed := workerproc.WithParsedMessage(ctx, decoded)
	if err := workerproc.HandleMessage(ctxWithParsed, app, body); err != nil {
		telemetry.Error("worker.parse.failed", map[string]any{
			"document_id": decoded.DocumentID,
			"request_id":  decoded.RequestID,
			"error":       err.Error(),
		})
		metrics.IncParseJobsFailed()
		return
	}

	telemetry.Info("worker.parse.completed", map[string]any{
		"document_id": decoded.DocumentID,
		"request_id":  decoded.RequestID,
	})
	metrics.IncParseJobsCompleted()
}

func runSQS(ctx context.Context, cfg config.Config, app *bootstrap.App) {
	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("DP_SQS_QUEUE_URL is required for the sqs queue backend")
	}

	visibilitySeconds := envInt("DP_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("DP_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("DP_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	region := strings.TrimSpace(cfg.AWSRegion)
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started backend=sqs queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncParseJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, queueURL, app.ParseProcessor, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type parseProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor parseProcessor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.parse.decode_failed", fields)
		if deleteMessage(ctx, client, queueURL, msg, "", decoded.RequestID) {
			metrics.IncParseJobsDeletedUnrecoverable()
		}
		return
	}

	telemetry.Info("worker.parse.received", baseFields(msg, decoded.DocumentID, decoded.RequestID))

	ctxWithRequest := parse.WithRequestID(ctx, decoded.RequestID)
	if err := processor.ProcessByID(ctxWithRequest, decoded.DocumentID); err != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.parse.failed", fields)
		metrics.IncParseJobsFailed()
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID) {
		telemetry.Info("worker.parse.completed", baseFields(msg, decoded.DocumentID, decoded.RequestID))
		metrics.IncParseJobsCompleted()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, documentID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.parse.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.parse.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, documentID, requestID string) map[string]any {
	fields := map[string]any{
		"document_id":    documentID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
