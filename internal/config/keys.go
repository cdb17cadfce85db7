package config

import "os"

// Environment variables holding the provider API keys.
const (
	EnvDeepSeekKey = "DEEPSEEK_API_KEY"
	EnvZhipuKey    = "ZHIPU_API_KEY"
)

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name     string       `json:"name"`
	EnvVar   string       `json:"env_var"`
	Source   APIKeySource `json:"source"`
	IsSet    bool         `json:"is_set"`
	Masked   string       `json:"masked,omitempty"` // e.g., "sk-...abc"
	Required bool         `json:"required"`
}

// CheckAPIKeys returns the status of the DeepSeek and Zhipu keys.
// Only DeepSeek is required; without Zhipu the RSS search is used.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	ds := checkKey("DeepSeek API Key", cfg.LLM.APIKey, EnvDeepSeekKey)
	ds.Required = true
	return []KeyStatus{
		ds,
		checkKey("Zhipu API Key", cfg.Search.ZhipuKey, EnvZhipuKey),
	}
}

// MissingRequired returns the names of required keys that are not set.
func MissingRequired(keys []KeyStatus) []string {
	var out []string
	for _, k := range keys {
		if k.Required && !k.IsSet {
			out = append(out, k.EnvVar)
		}
	}
	return out
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		EnvVar: envVar,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}
	if os.Getenv(envVar) != "" {
		status.Source = KeySourceEnv
	} else {
		status.Source = KeySourceConfig
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
