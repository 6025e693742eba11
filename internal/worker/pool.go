package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"eduvid-backend/internal/models"
	"eduvid-backend/internal/repository"
	"eduvid-backend/internal/services"
)

const pipelineQueue = "queue:video-pipeline"

// Pool consumes pipeline jobs from Redis and runs them through the content
// pipeline, publishing progress to the user's pub/sub channel along the way.
type Pool struct {
	redis       *redis.Client
	pipeline    *services.PipelineService
	email       *services.EmailService
	jobRepo     *repository.JobRepo
	userRepo    *repository.UserRepo
	videoRepo   *repository.VideoRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	pipeline *services.PipelineService,
	email *services.EmailService,
	jobRepo *repository.JobRepo,
	userRepo *repository.UserRepo,
	videoRepo *repository.VideoRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		pipeline:    pipeline,
		email:       email,
		jobRepo:     jobRepo,
		userRepo:    userRepo,
		videoRepo:   videoRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, pipelineQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Only one worker may run a given job
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "video-pipeline":
			processErr = p.processPipeline(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processPipeline(ctx context.Context, job *models.Job) error {
	var req models.ProcessContentRequest
	if err := json.Unmarshal(job.ConfigJSON, &req); err != nil {
		return fmt.Errorf("failed to parse job config: %w", err)
	}

	progress := func(stage, stepName string) {
		p.publishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "status_update",
			Payload: models.StatusUpdate{
				JobID:    job.ID,
				VideoID:  job.ReferenceID,
				Stage:    stage,
				StepName: stepName,
			},
		})
	}

	result, err := p.pipeline.ProcessContent(ctx, job.UserID, req, progress)
	if err != nil {
		return err
	}

	// The run created the record; remember it so status polls can resolve it.
	job.ReferenceID = result.VideoID
	if err := p.jobRepo.UpdateReference(ctx, job.ID, result.VideoID); err != nil {
		log.Printf("Worker: failed to link job %s to video %s: %v", job.ID, result.VideoID, err)
	}

	job.Status = result.Status
	return nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	go p.sendVideoReadyEmail(context.Background(), job)

	status := job.Status
	if status == "" {
		status = models.StatusCompleted
	}

	p.publishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:   job.ID,
			VideoID: job.ReferenceID,
			Status:  status,
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) sendVideoReadyEmail(ctx context.Context, job *models.Job) {
	if p.email == nil || p.userRepo == nil || p.videoRepo == nil {
		return
	}
	if job.ReferenceID == uuid.Nil {
		return
	}

	user, err := p.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		log.Printf("failed to load user %s for completion email: %v", job.UserID, err)
		return
	}

	video, err := p.videoRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		log.Printf("failed to load video %s for completion email: %v", job.ReferenceID, err)
		return
	}

	if err := p.email.SendVideoReadyEmail(user.Email, video.Title, video.ID.String()); err != nil {
		log.Printf("failed to send video-ready email to %s for video %s: %v", user.Email, video.ID, err)
	}
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	// Deterministic failures would reproduce on every run and each requeue
	// would create another record, so they fail permanently at once.
	var validationErr *services.ValidationError
	var invalidInput *services.InvalidInputError
	var notFound *services.NotFoundError
	var unauthorized *services.UnauthorizedError
	retryable := !errors.As(err, &validationErr) &&
		!errors.As(err, &invalidInput) &&
		!errors.As(err, &notFound) &&
		!errors.As(err, &unauthorized)

	if retryable && job.RetryCount < job.MaxRetries {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), pipelineQueue, string(jobBytes))
		})
	} else {
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		p.publishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				VideoID:      job.ReferenceID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}

func (p *Pool) publishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.redis.Publish(ctx, "user_updates:"+userID.String(), string(data))
}
