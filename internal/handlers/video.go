package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"eduvid-backend/internal/middleware"
	"eduvid-backend/internal/models"
	"eduvid-backend/internal/repository"
	"eduvid-backend/internal/services"
)

const pipelineQueue = "queue:video-pipeline"

type VideoHandler struct {
	pipeline  *services.PipelineService
	videoRepo *repository.VideoRepo
	jobRepo   *repository.JobRepo
	redis     *redis.Client
}

func NewVideoHandler(pipeline *services.PipelineService, videoRepo *repository.VideoRepo, jobRepo *repository.JobRepo, redisClient *redis.Client) *VideoHandler {
	return &VideoHandler{
		pipeline:  pipeline,
		videoRepo: videoRepo,
		jobRepo:   jobRepo,
		redis:     redisClient,
	}
}

// Process runs the content pipeline synchronously and returns the
// consolidated result.
func (h *VideoHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	result, err := h.pipeline.ProcessContent(r.Context(), userID, req, nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ProcessContentResponse{
		Success:          true,
		VideoID:          result.VideoID.String(),
		ExtractedContent: result.ExtractedContent,
		GeneratedScript:  result.GeneratedScript,
		AudioURL:         result.AudioURL,
		ThumbnailURL:     result.ThumbnailURL,
		Status:           result.Status,
	})
}

// ProcessAsync creates the record and a pipeline job, enqueues it, and
// returns immediately. Progress is delivered over the WebSocket channel.
func (h *VideoHandler) ProcessAsync(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.ContentType == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Content type and content are required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		UserID:      userID,
		Type:        "video-pipeline",
		ReferenceID: uuid.Nil, // record is created by the worker run
		ConfigJSON:  configBytes,
		CreatedAt:   time.Now(),
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), pipelineQueue, string(jobBytes)).Err(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid video ID", r))
		return
	}

	video, err := h.videoRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Video not found", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if video.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	videos, err := h.videoRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list videos", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid video ID", r))
		return
	}

	video, err := h.videoRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Video not found", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if video.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	if err := h.videoRepo.Delete(r.Context(), id, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete video", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}
