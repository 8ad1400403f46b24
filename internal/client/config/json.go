package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/readyinterview/client-go/internal/flagx"
	"github.com/readyinterview/client-go/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify budgets either as strings like
// "10s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config (which uses time.Duration).
type JsonConfig struct {
	BackendBaseURL        *string         `json:"backend_base_url"`
	APIKey                *string         `json:"api_key"`
	GoogleClientID        *string         `json:"google_client_id"`
	GoogleClientSecret    *string         `json:"google_client_secret"`
	GoogleRedirectURL     *string         `json:"google_redirect_url"`
	LocalStoreDSN         *string         `json:"local_store_dsn"`
	InitialResolveTimeout *timex.Duration `json:"initial_resolve_timeout"`
	DocReadTimeout        *timex.Duration `json:"doc_read_timeout"`
	InactivityLimit       *timex.Duration `json:"inactivity_limit"`
	LanguagePollInterval  *timex.Duration `json:"language_poll_interval"`
	LogLevel              *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via
// flagx.JsonConfigFlags(); when absent, nothing is loaded. Pointer
// fields distinguish "absent from the file" from "set to zero", so the
// file only overrides what it mentions. Read or unmarshal errors panic,
// matching the fail-fast startup policy of the flag layer.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *timex.Duration) {
		if src != nil {
			*dst = src.Duration
		}
	}

	setString(&cfg.BackendBaseURL, jc.BackendBaseURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.GoogleClientID, jc.GoogleClientID)
	setString(&cfg.GoogleClientSecret, jc.GoogleClientSecret)
	setString(&cfg.GoogleRedirectURL, jc.GoogleRedirectURL)
	setString(&cfg.LocalStoreDSN, jc.LocalStoreDSN)
	setString(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.InitialResolveTimeout, jc.InitialResolveTimeout)
	setDuration(&cfg.DocReadTimeout, jc.DocReadTimeout)
	setDuration(&cfg.InactivityLimit, jc.InactivityLimit)
	setDuration(&cfg.LanguagePollInterval, jc.LanguagePollInterval)
}
