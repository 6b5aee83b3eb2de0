package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"checkin-server-go/db"
	"checkin-server-go/label"
	"checkin-server-go/models"
	"checkin-server-go/printer"
)

const (
	instanceIDKey = "instanceId"
	settingsKey   = "settings"

	loginHeader = "X-Event-Password"
	adminHeader = "X-Admin-Password"
)

// Printer sends label markup to the print bridge
type Printer interface {
	Submit(ctx context.Context, markup string) printer.Outcome
}

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	KV        db.KV
	Instances *db.InstanceStore
	Settings  *db.SettingsStore
	Printer   Printer
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(kv db.KV, settings *db.SettingsStore, p Printer) *APIHandler {
	return &APIHandler{
		KV:        kv,
		Instances: db.NewInstanceStore(kv),
		Settings:  settings,
		Printer:   p,
	}
}

func instanceID(c *gin.Context) string {
	return c.GetString(instanceIDKey)
}

func eventSettings(c *gin.Context) models.Settings {
	return c.MustGet(settingsKey).(models.Settings)
}

func (h *APIHandler) recordStore(c *gin.Context) *db.RecordStore {
	return db.NewRecordStore(h.KV, instanceID(c), eventSettings(c).MaxBackups)
}

// --- Middleware ---

// LoadInstance resolves :instanceId and its settings
func (h *APIHandler) LoadInstance(c *gin.Context) {
	id := c.Param("instanceId")
	if _, err := h.Instances.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrInstanceNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Instance '" + id + "' does not exist"})
			return
		}
		log.Printf("Error checking instance %s: %v", id, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify instance"})
		return
	}
	settings, err := h.Settings.Load(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error loading settings of %s: %v", id, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.Set(instanceIDKey, id)
	c.Set(settingsKey, settings)
	c.Next()
}

// RequireLogin checks the shared event password
func RequireLogin(c *gin.Context) {
	if c.GetHeader(loginHeader) != eventSettings(c).LoginPassword {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}
	c.Next()
}

// RequireAdmin checks the admin password
func RequireAdmin(c *gin.Context) {
	if c.GetHeader(adminHeader) != eventSettings(c).AdminPassword {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Incorrect admin password"})
		return
	}
	c.Next()
}

// --- Instance Handlers ---

// GetInstances handles GET /api/instances
func (h *APIHandler) GetInstances(c *gin.Context) {
	instances, err := h.Instances.List(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetInstances handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve instances"})
		return
	}
	c.JSON(http.StatusOK, instances)
}

// CreateInstance handles POST /api/instances
func (h *APIHandler) CreateInstance(c *gin.Context) {
	var req db.NewInstance
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	inst, err := h.Instances.Create(c.Request.Context(), req, h.Settings)
	if err != nil {
		if errors.Is(err, db.ErrInstanceIncomplete) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error in CreateInstance handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create instance"})
		return
	}
	c.JSON(http.StatusCreated, inst)
}

// Login handles POST /api/instances/:instanceId/login
func (h *APIHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Password != eventSettings(c).LoginPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "instanceId": instanceID(c)})
}

// --- Record Handlers ---

// GetRecords handles GET /api/instances/:instanceId/records
func (h *APIHandler) GetRecords(c *gin.Context) {
	records, err := h.recordStore(c).FetchAll(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetRecords handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
		return
	}
	c.JSON(http.StatusOK, records)
}

type addRecordsRequest struct {
	Portaria string                 `json:"portaria"`
	Rows     []models.PartialRecord `json:"rows"`
}

// AddRecords handles POST /api/instances/:instanceId/records
func (h *APIHandler) AddRecords(c *gin.Context) {
	var req addRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	batch, err := models.ValidateBatch(req.Rows, req.Portaria)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	records, err := h.recordStore(c).AddBatch(ctx, batch)
	if err != nil {
		log.Printf("Error in AddRecords handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save records"})
		return
	}
	if err := h.Instances.SetGate(ctx, instanceID(c), batch[0].Portaria); err != nil {
		log.Printf("Could not remember gate for %s: %v", instanceID(c), err)
	}
	recordsRegistered.Add(float64(len(batch)))

	c.JSON(http.StatusCreated, gin.H{
		"message": strconv.Itoa(len(batch)) + " record(s) registered",
		"records": records,
	})
}

// DeleteRecord handles DELETE /api/instances/:instanceId/records/:recordId
func (h *APIHandler) DeleteRecord(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Record ID must be a number"})
		return
	}
	records, err := h.recordStore(c).DeleteByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("Error in DeleteRecord handler for %s/%d: %v", instanceID(c), id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /api/instances/:instanceId/stats
func (h *APIHandler) GetStats(c *gin.Context) {
	records, err := h.recordStore(c).FetchAll(c.Request.Context())
	if err != nil {
		log.Printf("Error in GetStats handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
		return
	}
	c.JSON(http.StatusOK, models.ComputeStats(records, eventSettings(c).CommonKeywords))
}

// --- Print Handlers ---

type printRequest struct {
	IDs    []int  `json:"ids"`
	Markup string `json:"markup"`
}

// Print handles POST /api/instances/:instanceId/print
func (h *APIHandler) Print(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No child selected for printing"})
		return
	}

	records, err := h.recordStore(c).FetchAll(c.Request.Context())
	if err != nil {
		log.Printf("Error in Print handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve records"})
		return
	}
	settings := eventSettings(c)
	markup, found := label.BuildBatch(records, req.IDs, settings.Geometry())
	if len(found) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "None of the selected records exist"})
		return
	}

	if settings.DebugMode {
		c.JSON(http.StatusOK, gin.H{
			"debug":   true,
			"ids":     found,
			"markup":  markup,
			"payload": printer.BuildPrintPayload(markup),
		})
		return
	}
	h.executePrint(c, markup, found)
}

// PrintRaw handles POST /api/instances/:instanceId/print/raw, sending markup reviewed in debug mode
func (h *APIHandler) PrintRaw(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Markup == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Markup is required"})
		return
	}
	h.executePrint(c, req.Markup, req.IDs)
}

// executePrint submits markup and flips the ids to printed only on success
func (h *APIHandler) executePrint(c *gin.Context, markup string, ids []int) {
	outcome := h.Printer.Submit(c.Request.Context(), markup)
	if !outcome.Success {
		printJobs.WithLabelValues("failure").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "Print failed: " + outcome.Message})
		return
	}
	printJobs.WithLabelValues("success").Inc()

	records, err := h.recordStore(c).MarkPrinted(c.Request.Context(), ids)
	if err != nil {
		log.Printf("Printed but failed to update status for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Labels printed but status update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Print command sent successfully. " + outcome.Message,
		"records": records,
	})
}

// --- Gate Handlers ---

// GetGate handles GET /api/instances/:instanceId/gate
func (h *APIHandler) GetGate(c *gin.Context) {
	gate, err := h.Instances.GetGate(c.Request.Context(), instanceID(c))
	if err != nil {
		log.Printf("Error in GetGate handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read gate"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"portaria": gate})
}

// SetGate handles PUT /api/instances/:instanceId/gate
func (h *APIHandler) SetGate(c *gin.Context) {
	var req struct {
		Portaria string `json:"portaria"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.Instances.SetGate(c.Request.Context(), instanceID(c), req.Portaria); err != nil {
		if errors.Is(err, db.ErrInvalidGate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error in SetGate handler for %s: %v", instanceID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save gate"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
