package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribeq/internal/errors"
	"github.com/skillsenselab/scribeq/internal/jobs"
	"github.com/skillsenselab/scribeq/internal/validation"
)

// JobService is the submission/status contract the handlers consume.
type JobService interface {
	Submit(ctx context.Context, req jobs.SubmitRequest) (*jobs.Job, error)
	Status(ctx context.Context, id string) (*jobs.Job, error)
}

// HealthChecker reports backing-service reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// submitForm binds the multipart fields of POST /transcribe.
type submitForm struct {
	Engine   string `form:"engine" binding:"required"`
	Language string `form:"language"`
	Model    string `form:"model"`
}

// statusResponse is the status read shape: always one of the four
// statuses, with result or error only in terminal states.
type statusResponse struct {
	JobID  string         `json:"job_id"`
	Status jobs.Status    `json:"status"`
	Result any            `json:"result,omitempty"`
	Error  *jobs.JobError `json:"error,omitempty"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var form submitForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, errors.Validation(validation.ErrorMessage(err)).WithCause(err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, errors.Validation("file form field is required").WithCause(err))
		return
	}
	if fileHeader.Size > s.cfg.MaxUploadBytes {
		writeError(c, errors.Validation(fmt.Sprintf(
			"file too large: %d bytes (max %d)", fileHeader.Size, s.cfg.MaxUploadBytes)))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, errors.Internal(err))
		return
	}
	defer file.Close() //nolint:errcheck

	job, err := s.service.Submit(c.Request.Context(), jobs.SubmitRequest{
		Filename: fileHeader.Filename,
		Engine:   form.Engine,
		Language: form.Language,
		Model:    form.Model,
		File:     file,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	job, err := s.service.Status(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := statusResponse{
		JobID:  job.ID,
		Status: job.Status,
		Error:  job.Error,
	}
	if job.Result != nil {
		resp.Result = job.Result
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "store": "disconnected"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError renders an AppError with its recommended HTTP status.
func writeError(c *gin.Context, err error) {
	appErr := errors.As(err)
	c.JSON(appErr.HTTPStatus, gin.H{"error": gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	}})
}
