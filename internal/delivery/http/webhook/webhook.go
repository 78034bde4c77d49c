// Package webhook is the legacy push-based entry point: GitLab posts issue
// events here. Submission detection runs through polling these days, so the
// default handler only logs what arrives.
package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-homework-bot/internal/delivery/http/middleware"
	"go-homework-bot/internal/delivery/http/response"
	"go-homework-bot/pkg/logger"
)

// IssueEvent is the payload GitLab delivers for issue webhooks, reduced to
// the fields the bot ever looked at.
type IssueEvent struct {
	Project struct {
		ID     int64  `json:"id"`
		WebURL string `json:"web_url"`
	} `json:"project"`
	ObjectAttributes struct {
		Action string `json:"action" binding:"required"` // close | reopen | open
	} `json:"object_attributes" binding:"required"`
}

// Handler consumes one delivered issue event.
type Handler func(event IssueEvent)

// LogOnlyHandler records the event; polling picks the closure up on the
// next cycle.
func LogOnlyHandler(event IssueEvent) {
	logger.Log.Info("[Webhook] received issue event",
		"action", event.ObjectAttributes.Action,
		"project_id", event.Project.ID,
		"project_url", event.Project.WebURL)
}

// NewRouter builds the webhook server: the hook endpoint plus a liveness
// check.
func NewRouter(handler Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational")
	})

	r.POST("/hooks", func(c *gin.Context) {
		var event IssueEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid issue event payload", err.Error())
			return
		}
		handler(event)
		response.Success(c, http.StatusOK, "event accepted")
	})

	return r
}
