package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ssr-first/internal/config"
	"github.com/yourusername/ssr-first/internal/jobs"
	"github.com/yourusername/ssr-first/internal/logging"
)

func setupJobs(cfg *config.Config, logger *logging.Logger) (*jobs.Manager, error) {
	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(opt)
	store := jobs.NewStore(redisClient, jobs.DefaultRecordTTL)
	return jobs.NewManager(cfg, store, logger)
}

func maintenanceDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"code":    "MAINTENANCE_DISABLED",
		"message": "maintenance jobs are not configured",
	})
}

func unknownTask(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"code":    "TASK_NOT_FOUND",
		"message": "unknown maintenance task: " + c.Param("type"),
	})
}

// maintenanceStatusHandler は GET /api/maintenance/:type のハンドラーです。直近の実行記録を返します。
func maintenanceStatusHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			maintenanceDisabled(c)
			return
		}
		taskType := c.Param("type")
		if !manager.Known(taskType) {
			unknownTask(c)
			return
		}

		record, err := manager.GetRecord(c.Request.Context(), taskType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "failed to load maintenance record",
			})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "RECORD_NOT_FOUND",
				"message": "the task has not run yet",
			})
			return
		}

		payload := gin.H{
			"taskId":    record.TaskID,
			"type":      record.Type,
			"status":    record.Status,
			"removed":   record.Removed,
			"startedAt": record.StartedAt,
			"updatedAt": record.UpdatedAt,
		}
		if !record.FinishedAt.IsZero() {
			payload["finishedAt"] = record.FinishedAt
		}
		if record.Error != nil {
			payload["error"] = record.Error
		}
		c.JSON(http.StatusOK, payload)
	}
}

// maintenanceRunHandler は POST /api/maintenance/:type のハンドラーです。タスクを即時実行としてキューに入れます。
func maintenanceRunHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			maintenanceDisabled(c)
			return
		}
		taskID, err := manager.Enqueue(c.Request.Context(), c.Param("type"))
		if err != nil {
			if errors.Is(err, jobs.ErrUnknownTask) {
				unknownTask(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "failed to enqueue maintenance task",
			})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"taskId": taskID,
			"status": jobs.StatusQueued,
		})
	}
}
