package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/provider"
	"github.com/fleveque/motqot/internal/storage"
)

// Rescheduler is told when the notification settings change.
// *scheduler.Daily implements it.
type Rescheduler interface {
	Reschedule()
}

// SettingsHandler reads and writes user preferences.
type SettingsHandler struct {
	prefs       *storage.Preferences
	rescheduler Rescheduler // nil when the scheduler is disabled
	logger      *zap.Logger
}

func NewSettingsHandler(prefs *storage.Preferences, rescheduler Rescheduler, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{prefs: prefs, rescheduler: rescheduler, logger: logger}
}

// Settings is the JSON view of the preferences. The API key is never
// returned in full.
type Settings struct {
	APIKey               string `json:"api_key"`
	APIKeySet            bool   `json:"api_key_set"`
	BaseURL              string `json:"base_url"`
	Model                string `json:"model"`
	Preset               string `json:"preset"`
	Language             string `json:"language"`
	LanguageName         string `json:"language_name"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	NotificationHour     int    `json:"notification_hour"`
	NotificationMinute   int    `json:"notification_minute"`
}

// settingsUpdate uses pointers so absent fields are left alone.
type settingsUpdate struct {
	APIKey               *string `json:"api_key"`
	BaseURL              *string `json:"base_url"`
	Model                *string `json:"model"`
	Preset               *string `json:"preset"`
	Language             *string `json:"language"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	NotificationHour     *int    `json:"notification_hour"`
	NotificationMinute   *int    `json:"notification_minute"`
}

// Get returns the current settings.
// Route: GET /api/v1/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.load(c.Request.Context())
	if err != nil {
		h.logger.Error("loading settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// Update applies a partial update. A preset change overwrites base URL and
// model with the preset's values; explicit base_url/model in the same
// request win over the preset.
// Route: PUT /api/v1/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req settingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()

	if req.Preset != nil && !provider.Valid(*req.Preset) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unknown preset",
			"presets": provider.IDs(),
		})
		return
	}

	timeChanged := req.NotificationHour != nil || req.NotificationMinute != nil
	hour, minute, err := h.prefs.NotificationTime(ctx)
	if err != nil {
		h.internalError(c, "reading notification time", err)
		return
	}
	if req.NotificationHour != nil {
		hour = *req.NotificationHour
	}
	if req.NotificationMinute != nil {
		minute = *req.NotificationMinute
	}
	if timeChanged && (hour < 0 || hour > 23 || minute < 0 || minute > 59) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notification time out of range"})
		return
	}

	if req.Preset != nil {
		if err := h.prefs.SetPreset(ctx, *req.Preset); err != nil {
			h.internalError(c, "saving preset", err)
			return
		}
		if err := provider.Apply(ctx, *req.Preset, h.prefs); err != nil {
			h.internalError(c, "applying preset", err)
			return
		}
	}

	writes := []struct {
		val *string
		set func(context.Context, string) error
	}{
		{req.APIKey, h.prefs.SetAPIKey},
		{req.BaseURL, h.prefs.SetBaseURL},
		{req.Model, h.prefs.SetModel},
		{req.Language, h.prefs.SetLanguage},
	}
	for _, w := range writes {
		if w.val == nil {
			continue
		}
		if err := w.set(ctx, strings.TrimSpace(*w.val)); err != nil {
			h.internalError(c, "saving settings", err)
			return
		}
	}

	if req.NotificationsEnabled != nil {
		if err := h.prefs.SetNotificationsEnabled(ctx, *req.NotificationsEnabled); err != nil {
			h.internalError(c, "saving notification setting", err)
			return
		}
	}
	if timeChanged {
		if err := h.prefs.SetNotificationTime(ctx, hour, minute); err != nil {
			h.internalError(c, "saving notification time", err)
			return
		}
	}

	if (timeChanged || req.NotificationsEnabled != nil) && h.rescheduler != nil {
		h.rescheduler.Reschedule()
	}

	h.Get(c)
}

// Presets lists the selectable provider presets.
// Route: GET /api/v1/presets
func (h *SettingsHandler) Presets(c *gin.Context) {
	out := make([]provider.Preset, 0, len(provider.IDs()))
	for _, id := range provider.IDs() {
		p, ok := provider.Get(id)
		if !ok {
			p = provider.Preset{ID: id}
		}
		out = append(out, p)
	}
	c.JSON(http.StatusOK, gin.H{"presets": out})
}

func (h *SettingsHandler) load(ctx context.Context) (*Settings, error) {
	var s Settings

	key, err := h.prefs.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	s.APIKey = storage.MaskAPIKey(key)
	s.APIKeySet = strings.TrimSpace(key) != ""

	if s.BaseURL, err = h.prefs.BaseURL(ctx); err != nil {
		return nil, err
	}
	if s.Model, err = h.prefs.Model(ctx); err != nil {
		return nil, err
	}
	if s.Preset, err = h.prefs.Preset(ctx); err != nil {
		return nil, err
	}
	if s.Language, err = h.prefs.Language(ctx); err != nil {
		return nil, err
	}
	s.LanguageName = llm.LanguageName(s.Language)
	if s.NotificationsEnabled, err = h.prefs.NotificationsEnabled(ctx); err != nil {
		return nil, err
	}
	if s.NotificationHour, s.NotificationMinute, err = h.prefs.NotificationTime(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

func (h *SettingsHandler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
