package api

import (
	"fmt"
	"net/http"
	"strconv"

	"hacktrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SyncHandler 手动触发入口（运维用；常规路径由定时调度驱动）
type SyncHandler struct {
	ingest  *service.IngestService
	planner *service.PlannerService
	logger  *logrus.Logger
}

// NewSyncHandler 创建手动触发Handler
func NewSyncHandler(ingest *service.IngestService, planner *service.PlannerService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		ingest:  ingest,
		planner: planner,
		logger:  logger,
	}
}

// SyncContestsHandler 手动触发一轮竞赛拉取
// @Summary 手动同步clist.by竞赛数据
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /sync/contests [post]
func (h *SyncHandler) SyncContestsHandler(c *gin.Context) {
	runID := uuid.NewString()
	log := h.logger.WithField("run_id", runID)

	count, err := h.ingest.Run(c.Request.Context())
	if err != nil {
		log.Errorf("手动竞赛同步失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"run_id": runID,
			"error":  err.Error(),
		})
		return
	}

	log.Infof("手动竞赛同步完成，共%d条", count)
	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"message": fmt.Sprintf("同步成功，共%d个竞赛", count),
		"count":   count,
	})
}

// SyncUserHandler 手动触发单用户排期（用户改偏好/接通日历后调用）
// @Summary 手动为指定用户重算提醒排期
// @Param user_id path int true "用户ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /sync/users/{user_id} [post]
func (h *SyncHandler) SyncUserHandler(c *gin.Context) {
	runID := uuid.NewString()
	log := h.logger.WithField("run_id", runID)

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"run_id": runID,
			"error":  "user_id必须是正整数",
		})
		return
	}

	if err := h.planner.PlanUserByID(c.Request.Context(), userID); err != nil {
		log.Errorf("用户%d排期失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"run_id": runID,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"message": fmt.Sprintf("用户%d排期成功", userID),
	})
}
