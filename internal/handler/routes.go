package handler

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted under the API prefix.
// Export is nil when exports are disabled.
type Handlers struct {
	Proposals  *ProposalHandler
	Generation *GenerationHandler
	Timetables *TimetableHandler
	Export     *ExportHandler
	Metrics    *MetricsHandler
}

// Register mounts every API route on the given group.
func (h Handlers) Register(api gin.IRouter) {
	if h.Proposals != nil {
		api.GET("/proposals", h.Proposals.List)
	}

	if h.Generation != nil {
		sessions := api.Group("/generation-sessions")
		sessions.POST("", h.Generation.Create)
		sessions.GET("/:id", h.Generation.Get)
		sessions.PUT("/:id/window", h.Generation.SetWindow)
		sessions.POST("/:id/autofill", h.Generation.AutoFill)
		sessions.POST("/:id/toggle", h.Generation.Toggle)
		sessions.POST("/:id/reset", h.Generation.Reset)
		sessions.POST("/:id/submit", h.Generation.Submit)
		sessions.DELETE("/:id", h.Generation.Delete)
	}

	if h.Timetables != nil {
		timetables := api.Group("/timetables")
		timetables.POST("/validate-window", h.Timetables.ValidateWindow)
		timetables.GET("", h.Timetables.List)
		timetables.GET("/:id", h.Timetables.Get)
		timetables.PUT("/:id", h.Timetables.Update)
		timetables.DELETE("/:id", h.Timetables.Delete)
		timetables.GET("/:id/events", h.Timetables.Events)
		if h.Export != nil {
			timetables.POST("/:id/exports", h.Export.Create)
		}
	}

	if h.Export != nil {
		api.GET("/exports/:id", h.Export.Status)
		api.GET("/export/:token", h.Export.Download)
	}

	if h.Metrics != nil {
		api.GET("/system/metrics", h.Metrics.Summary)
	}
}
