package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/JSC875/ride-notify/internal/model"
	"github.com/JSC875/ride-notify/internal/repository"
	"github.com/JSC875/ride-notify/internal/service"
)

// NotificationHandler exposes the device registration, send and preference
// endpoints consumed by the mobile clients and the ride/payment backends.
type NotificationHandler struct {
	registry *service.RegistryService
	sender   *service.SendService
	prefs    *repository.PreferenceRepository
	history  *repository.NotificationRepository
}

func NewNotificationHandler(
	registry *service.RegistryService,
	sender *service.SendService,
	prefs *repository.PreferenceRepository,
	history *repository.NotificationRepository,
) *NotificationHandler {
	return &NotificationHandler{
		registry: registry,
		sender:   sender,
		prefs:    prefs,
		history:  history,
	}
}

// Register upserts a device push token. Success is the 2xx status alone;
// clients do not parse the body.
func (h *NotificationHandler) Register(c *gin.Context) {
	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	token, err := h.registry.RegisterDevice(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "device registered", Data: token})
}

// Unregister deactivates a token; unknown tokens still return 200
func (h *NotificationHandler) Unregister(c *gin.Context) {
	var req model.UnregisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.registry.UnregisterDevice(req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to unregister device"})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "device unregistered"})
}

// Send fans a notification out to the given users' devices. The optional
// X-Correlation-ID header makes retried requests idempotent.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	duplicate, err := h.sender.CheckIdempotency(c.Request.Context(), c.GetHeader("X-Correlation-ID"))
	if err != nil {
		// Idempotency is best effort; a redis hiccup must not block sends
		duplicate = false
	}
	if duplicate {
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "Request already being processed"})
		return
	}

	report, err := h.sender.Send(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "notification dispatched", Data: report})
}

// GetPreferences returns the caller's server-side preference mirror
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	prefs, err := h.prefs.Get(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences rewrites the caller's preference mirror whole
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	current, err := h.prefs.Get(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to load preferences"})
		return
	}

	patch := model.PreferencePatch{
		PushEnabled:      req.PushEnabled,
		LocationServices: req.LocationServices,
		AutoPayment:      req.AutoPayment,
		ShareData:        req.ShareData,
	}
	merged := patch.Apply(model.NotificationPreferences{
		PushEnabled:      current.PushEnabled,
		LocationServices: current.LocationServices,
		AutoPayment:      current.AutoPayment,
		ShareData:        current.ShareData,
	})

	updated := &model.UserPreferences{
		UserID:           userID,
		PushEnabled:      merged.PushEnabled,
		LocationServices: merged.LocationServices,
		AutoPayment:      merged.AutoPayment,
		ShareData:        merged.ShareData,
		LastUpdated:      time.Now(),
	}
	if err := h.prefs.Upsert(updated); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to save preferences"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetHistory returns the caller's recent notifications, newest first
func (h *NotificationHandler) GetHistory(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	var before *uuid.UUID
	if req.Before != "" {
		id, err := uuid.Parse(req.Before)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid cursor"})
			return
		}
		before = &id
	}

	notifications, err := h.history.ListByUser(userID, before, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}
