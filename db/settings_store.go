package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cast"

	"checkin-server-go/models"
)

const settingsKey = "appSettings" // String: JSON object overriding the default settings

// SettingsStore loads per-event settings as defaults merged with a stored override
type SettingsStore struct {
	kv       KV
	defaults models.Settings
}

// NewSettingsStore creates a settings store on top of the given defaults
func NewSettingsStore(kv KV, defaults models.Settings) *SettingsStore {
	return &SettingsStore{kv: kv, defaults: defaults}
}

// Load returns the effective settings of one event. A corrupt override is
// dropped and the defaults are used.
func (s *SettingsStore) Load(ctx context.Context, namespace string) (models.Settings, error) {
	settings := s.defaults
	settings.CommonKeywords = append([]string(nil), s.defaults.CommonKeywords...)

	raw, ok, err := s.kv.Get(ctx, namespace, settingsKey)
	if err != nil {
		return models.Settings{}, err
	}
	if ok {
		var override map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &override); err != nil {
			log.Printf("Failed to parse settings of %s, clearing them: %v", namespace, err)
			if delErr := s.kv.Delete(ctx, namespace, settingsKey); delErr != nil {
				return models.Settings{}, delErr
			}
		} else {
			applyOverride(&settings, override)
		}
	}

	settings.Derive()
	return settings, nil
}

// Save stores an override. Only the keys present in override are changed on the next Load.
func (s *SettingsStore) Save(ctx context.Context, namespace string, override map[string]interface{}) error {
	data, err := json.Marshal(override)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.kv.Set(ctx, namespace, settingsKey, string(data))
}

// applyOverride copies recognised keys, coercing form values such as "10" or "true"
func applyOverride(settings *models.Settings, override map[string]interface{}) {
	for key, val := range override {
		switch key {
		case "MAX_BACKUPS":
			setInt(&settings.MaxBackups, key, val)
		case "NUM_LINHAS_FORMULARIO_CADASTRO":
			setInt(&settings.FormRows, key, val)
		case "TAMPULSEIRA":
			setInt(&settings.LabelLength, key, val)
		case "DOTS":
			setInt(&settings.DotsPerUnit, key, val)
		case "FECHO":
			setInt(&settings.Clasp, key, val)
		case "SENHA_LOGIN":
			settings.LoginPassword = cast.ToString(val)
		case "SENHA_ADMIN_REAL":
			settings.AdminPassword = cast.ToString(val)
		case "ZPL_DEBUG_MODE":
			if b, err := cast.ToBoolE(val); err == nil {
				settings.DebugMode = b
			}
		case "PALAVRAS_CHAVE_COMUM":
			settings.CommonKeywords = ParseKeywords(val)
		}
	}
}

func setInt(dst *int, key string, val interface{}) {
	n, err := cast.ToIntE(val)
	if err != nil {
		log.Printf("Ignoring setting %s=%v: %v", key, val, err)
		return
	}
	*dst = n
}

// ParseKeywords accepts a list or a comma-separated string
func ParseKeywords(val interface{}) []string {
	var parts []string
	if s, ok := val.(string); ok {
		parts = strings.Split(s, ",")
	} else {
		parts = cast.ToStringSlice(val)
	}
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
