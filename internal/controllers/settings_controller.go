package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/services"
	"github.com/imi6/dandan/internal/structures"
)

const maxSettingsBodySize = 256 << 10

type SettingsController struct {
	logger  providers.Logger
	service services.SettingsServiceInterface
	debug   bool
}

func NewSettingsController(logger providers.Logger, service services.SettingsServiceInterface, conf *structures.Config) *SettingsController {
	return &SettingsController{
		logger:  logger,
		service: service,
		debug:   conf.Debug,
	}
}

// Handle dispatches on method: GET reads, POST saves, DELETE resets.
func (sc *SettingsController) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sc.service.Get())

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxSettingsBodySize)
		var settings services.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeAppError(w, apperr.Formatf("invalid settings body: %v", err), sc.debug)
			return
		}
		if err := sc.service.Save(settings); err != nil {
			writeAppError(w, err, sc.debug)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Settings saved successfully",
		})

	case http.MethodDelete:
		defaults, err := sc.service.Reset()
		if err != nil {
			writeAppError(w, err, sc.debug)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"settings": defaults,
		})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
