package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/security"
	"shiftreport.com/shiftreport/web/handlers/auth"
	"shiftreport.com/shiftreport/web/handlers/dailyreport"
	"shiftreport.com/shiftreport/web/handlers/users"
	"shiftreport.com/shiftreport/web/middlewares"
)

type Dependencies struct {
	Users     *core.UserDirectory
	Reports   *core.ReportRepository
	Issuer    *security.TokenIssuer
	Blacklist security.TokenBlacklist
	Notifier  dailyreport.Notifier
	Log       *zap.Logger
}

// Register mounts every route on r. Registration, token and ping endpoints are open.
func Register(r *gin.Engine, deps Dependencies) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	users.RegisterPublic(r, deps.Users)
	auth.Register(r, deps.Users, deps.Issuer, deps.Blacklist)

	protected := r.Group("/")
	protected.Use(middlewares.Authentication(deps.Issuer, deps.Blacklist))
	{
		users.Register(protected, deps.Users)
		dailyreport.Register(protected, deps.Reports, deps.Users, deps.Notifier, deps.Log)
	}
}
