package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter registers every API route on a new gin engine
func SetupRouter(h *APIHandler) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.GET("/ping", PingHandler)
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// Instance registry
		api.GET("/instances", h.GetInstances)
		api.POST("/instances", h.CreateInstance)

		inst := api.Group("/instances/:instanceId", h.LoadInstance)
		inst.POST("/login", h.Login)

		event := inst.Group("", RequireLogin)
		{
			event.GET("/records", h.GetRecords)
			event.POST("/records", h.AddRecords)
			event.DELETE("/records/:recordId", h.DeleteRecord)
			event.GET("/stats", h.GetStats)

			event.POST("/print", h.Print)
			event.POST("/print/raw", h.PrintRaw)

			event.GET("/gate", h.GetGate)
			event.PUT("/gate", h.SetGate)

			event.GET("/backups", h.GetBackups)
			event.GET("/backups/:slot/preview", h.PreviewBackup)

			event.GET("/export", h.ExportRecords)
			event.POST("/import", h.ImportRecords)
		}

		admin := event.Group("", RequireAdmin)
		{
			admin.POST("/reset", h.ResetRecords)
			admin.POST("/backups/:slot/restore", h.RestoreBackup)
			admin.GET("/settings", h.GetSettings)
			admin.PUT("/settings", h.UpdateSettings)
		}
	}
	return router
}
