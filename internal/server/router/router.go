package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/server/handlers"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Attendance *handlers.AttendanceHandler
	WorkOff    *handlers.WorkOffHandler
	Reports    *handlers.ReportHandler
	Summaries  *handlers.SummaryHandler
	Milk       *handlers.MilkHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, tokens handlers.TokenParser, corsOrigin string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(handlers.CORS(corsOrigin))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/logout", h.Auth.Logout)

	user := api.Group("", handlers.Authenticate(tokens, logger))
	user.GET("/protected", h.Auth.Protected)
	user.GET("/users/me", h.Users.Me)

	user.PUT("/attendance", h.Attendance.UpdateToday)
	user.GET("/attendance", h.Attendance.ListMine)
	user.DELETE("/attendance/:id", h.Attendance.DeleteMine)

	user.POST("/off", h.WorkOff.Save)
	user.GET("/off", h.WorkOff.Summary)
	user.PUT("/off", h.WorkOff.MarkUsed)
	user.GET("/off/limit", h.WorkOff.Allotment)

	user.POST("/reports", h.Reports.Create)
	user.GET("/reports", h.Reports.Overview)
	user.GET("/reports/:id", h.Reports.Get)
	user.PUT("/reports/:id", h.Reports.Update)
	user.DELETE("/reports/:id", h.Reports.Delete)

	user.GET("/summaries", h.Summaries.List)
	user.POST("/summaries/:type", handlers.RequireSummaryAdmin(logger), h.Summaries.Generate)

	user.POST("/milk/record", h.Milk.Record)
	user.GET("/milk/summary", h.Milk.Summary)
	user.GET("/milk/animals", h.Milk.ListAnimals)

	admin := user.Group("/admin", handlers.RequireManager(logger))
	admin.GET("/protected", h.Auth.Protected)

	admin.GET("/users", h.Users.List)
	admin.GET("/users/:id", h.Users.Get)
	admin.PUT("/users/:id", h.Users.Update)

	admin.GET("/attendance", h.Attendance.List)
	admin.GET("/attendance/:id", h.Attendance.LatestForUser)
	admin.PUT("/attendance/:id", h.Attendance.UpdateStatus)

	admin.POST("/off", h.WorkOff.SetAllotment)
	admin.GET("/off", h.WorkOff.Overview)
	admin.PUT("/off/:id", h.WorkOff.Reschedule)

	admin.POST("/milk/animals", h.Milk.CreateAnimal)
	admin.GET("/milk/animals", h.Milk.ListAnimals)
	admin.POST("/milk/export", h.Milk.Export)

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
