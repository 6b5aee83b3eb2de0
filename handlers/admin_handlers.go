package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkin-server-go/db"
	"checkin-server-go/models"
)

// ResetRecords handles POST /api/instances/:instanceId/reset
func (h *APIHandler) ResetRecords(c *gin.Context) {
	records, err := h.recordStore(c).ResetAll(c.Request.Context())
	if err != nil {
		log.Printf("Error in ResetRecords handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Records reset. Backup created.", "records": records})
}

func backupSlot(c *gin.Context) (int, bool) {
	slot, err := db.ParseBackupKey(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return slot, true
}

// GetBackups handles GET /api/instances/:instanceId/backups
func (h *APIHandler) GetBackups(c *gin.Context) {
	backups, err := h.recordStore(c).ListBackups(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetBackups handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backups"})
		return
	}
	c.JSON(http.StatusOK, backups)
}

// PreviewBackup handles GET /api/instances/:instanceId/backups/:slot/preview
func (h *APIHandler) PreviewBackup(c *gin.Context) {
	slot, ok := backupSlot(c)
	if !ok {
		return
	}
	preview, err := h.recordStore(c).PreviewBackup(c.Request.Context(), slot)
	if err != nil {
		log.Printf("Error in PreviewBackup handler for %s/%d: %v", instanceID(c), slot, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read backup"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": db.BackupKey(slot), "preview": preview})
}

// RestoreBackup handles POST /api/instances/:instanceId/backups/:slot/restore
func (h *APIHandler) RestoreBackup(c *gin.Context) {
	slot, ok := backupSlot(c)
	if !ok {
		return
	}
	store := h.recordStore(c)
	restored, err := store.RestoreBackup(c.Request.Context(), slot)
	if err != nil {
		log.Printf("Error in RestoreBackup handler for %s/%d: %v", instanceID(c), slot, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore backup"})
		return
	}
	if !restored {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backup '" + db.BackupKey(slot) + "' could not be restored"})
		return
	}
	records, err := store.FetchAll(c.Request.Context())
	if err != nil {
		log.Printf("Error reading restored records for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup '" + db.BackupKey(slot) + "' restored", "records": records})
}

// --- Settings Handlers ---

// GetSettings handles GET /api/instances/:instanceId/settings
func (h *APIHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, eventSettings(c))
}

// UpdateSettings handles PUT /api/instances/:instanceId/settings
func (h *APIHandler) UpdateSettings(c *gin.Context) {
	var override map[string]interface{}
	if err := c.ShouldBindJSON(&override); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	stored, err := h.mergeOverride(c, override)
	if err != nil {
		log.Printf("Error in UpdateSettings handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, stored)
}

// mergeOverride layers override on top of the current settings, so unchanged
// keys keep their values, and reloads them
func (h *APIHandler) mergeOverride(c *gin.Context, override map[string]interface{}) (models.Settings, error) {
	ctx := c.Request.Context()
	current := eventSettings(c)
	full := map[string]interface{}{
		"MAX_BACKUPS":                    current.MaxBackups,
		"NUM_LINHAS_FORMULARIO_CADASTRO": current.FormRows,
		"SENHA_LOGIN":                    current.LoginPassword,
		"SENHA_ADMIN_REAL":               current.AdminPassword,
		"TAMPULSEIRA":                    current.LabelLength,
		"DOTS":                           current.DotsPerUnit,
		"FECHO":                          current.Clasp,
		"PALAVRAS_CHAVE_COMUM":           current.CommonKeywords,
		"ZPL_DEBUG_MODE":                 current.DebugMode,
	}
	for k, v := range override {
		if _, known := full[k]; known {
			full[k] = v
		}
	}
	if err := h.Settings.Save(ctx, instanceID(c), full); err != nil {
		return models.Settings{}, err
	}
	return h.Settings.Load(ctx, instanceID(c))
}

// --- Excel Handlers ---

// ExportRecords handles GET /api/instances/:instanceId/export
func (h *APIHandler) ExportRecords(c *gin.Context) {
	records, err := h.recordStore(c).FetchAll(c.Request.Context())
	if err != nil {
		log.Printf("Error in ExportRecords handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
		return
	}
	data, err := db.ExportRecordsToExcel(records)
	if err != nil {
		log.Printf("Error exporting records of %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export records"})
		return
	}
	filename := "criancas-" + instanceID(c) + "-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ImportRecords handles POST /api/instances/:instanceId/import
func (h *APIHandler) ImportRecords(c *gin.Context) {
	gate := c.PostForm("portaria")
	if gate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing 'portaria' in form data"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.Printf("Error getting form file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log.Printf("Received file upload: %s for instance: %s", header.Filename, instanceID(c))

	importedCount, err := db.ImportRecordsFromExcel(c.Request.Context(), h.recordStore(c), file, gate)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrIncompleteRow) || errors.Is(err, models.ErrEmptyBatch) {
			status = http.StatusBadRequest
		}
		log.Printf("Error importing records from file %s for %s: %v", header.Filename, instanceID(c), err)
		c.JSON(status, gin.H{"message": "Failed to import records: " + err.Error(), "importedCount": importedCount})
		return
	}
	recordsRegistered.Add(float64(importedCount))

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": importedCount,
		"instanceId":    instanceID(c),
	})
}
