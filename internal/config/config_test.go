package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{
		EnvDeepSeekKey, EnvZhipuKey,
		"FUTURESAGENT_LLM_API_KEY", "FUTURESAGENT_SEARCH_ZHIPU_KEY",
	} {
		t.Setenv(e, "")
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// LLM defaults
	if cfg.LLM.Model != "deepseek-chat" {
		t.Errorf("LLM.Model: got %q, want %q", cfg.LLM.Model, "deepseek-chat")
	}
	if cfg.LLM.BaseURL != "https://api.deepseek.com" {
		t.Errorf("LLM.BaseURL: got %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("LLM.Temperature: got %f, want 0", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 4096 {
		t.Errorf("LLM.MaxTokens: got %d, want 4096", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.MaxIterations != 5 {
		t.Errorf("LLM.MaxIterations: got %d, want 5", cfg.LLM.MaxIterations)
	}

	// Search defaults
	if cfg.Search.Engine != "search_std" {
		t.Errorf("Search.Engine: got %q", cfg.Search.Engine)
	}
	if cfg.Search.MaxResults != 10 {
		t.Errorf("Search.MaxResults: got %d, want 10", cfg.Search.MaxResults)
	}
	if !strings.Contains(cfg.Search.RSSURL, "%s") {
		t.Errorf("Search.RSSURL should carry a query placeholder: %q", cfg.Search.RSSURL)
	}

	// Market / report defaults
	if cfg.Market.Lookback != 30 {
		t.Errorf("Market.Lookback: got %d, want 30", cfg.Market.Lookback)
	}
	if cfg.Report.Dir != "reports" {
		t.Errorf("Report.Dir: got %q, want %q", cfg.Report.Dir, "reports")
	}
	if cfg.Report.Split {
		t.Error("Report.Split should be false by default")
	}

	// API defaults
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}

	if !strings.HasSuffix(cfg.History.Path, "history.db") {
		t.Errorf("History.Path: got %q", cfg.History.Path)
	}
	if cfg.Watch.Cron != "0 30 15 * * 1-5" {
		t.Errorf("Watch.Cron: got %q", cfg.Watch.Cron)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}

	if cfg.LLM.APIKey != "" || cfg.Search.ZhipuKey != "" {
		t.Error("API keys should be empty without env or file")
	}
}

func TestLoadEnvPrefixOverride(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("FUTURESAGENT_REPORT_DIR", "/tmp/out")
	t.Setenv("FUTURESAGENT_MARKET_LOOKBACK", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Report.Dir != "/tmp/out" {
		t.Errorf("Report.Dir: got %q, want /tmp/out", cfg.Report.Dir)
	}
	if cfg.Market.Lookback != 60 {
		t.Errorf("Market.Lookback: got %d, want 60", cfg.Market.Lookback)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "futuresagent.yaml")
	content := []byte(`
llm:
  model: "deepseek-reasoner"
  temperature: 0.3
  api_key: "sk-from-file-1234567"
search:
  recency: "oneMonth"
market:
  lookback: 45
  catalog_file: "extra.yaml"
report:
  dir: "/var/reports"
  split: true
api:
  port: 9090
watch:
  symbols: ["CU", "RB"]
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.LLM.Model != "deepseek-reasoner" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature: got %f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.LLM.APIKey != "sk-from-file-1234567" {
		t.Errorf("LLM.APIKey: got %q", cfg.LLM.APIKey)
	}
	if cfg.Search.Recency != "oneMonth" {
		t.Errorf("Search.Recency: got %q", cfg.Search.Recency)
	}
	if cfg.Search.Engine != "search_std" {
		t.Errorf("defaults should survive a partial file, Search.Engine = %q", cfg.Search.Engine)
	}
	if cfg.Market.Lookback != 45 || cfg.Market.CatalogFile != "extra.yaml" {
		t.Errorf("Market: got %+v", cfg.Market)
	}
	if cfg.Report.Dir != "/var/reports" || !cfg.Report.Split {
		t.Errorf("Report: got %+v", cfg.Report)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if len(cfg.Watch.Symbols) != 2 || cfg.Watch.Symbols[1] != "RB" {
		t.Errorf("Watch.Symbols: got %v", cfg.Watch.Symbols)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/futuresagent.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(EnvDeepSeekKey, "sk-deepseek-123456")
	t.Setenv(EnvZhipuKey, "zhipu-key-789")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.APIKey != "sk-deepseek-123456" {
		t.Errorf("LLM.APIKey: got %q", cfg.LLM.APIKey)
	}
	if cfg.Search.ZhipuKey != "zhipu-key-789" {
		t.Errorf("Search.ZhipuKey: got %q", cfg.Search.ZhipuKey)
	}
}

func TestOverrideFromEnvBareWinsOverPrefixed(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("FUTURESAGENT_LLM_API_KEY", "prefixed")
	t.Setenv(EnvDeepSeekKey, "bare")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.LLM.APIKey != "bare" {
		t.Errorf("LLM.APIKey: got %q, want bare", cfg.LLM.APIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{LLM: LLMConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.LLM.APIKey != "from-config" {
		t.Errorf("APIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.APIKey)
	}
}

// ── .env ──

func writeDotEnv(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, ".env")
	content := "DEEPSEEK_API_KEY=sk-dotenv-123456\nZHIPU_API_KEY=zhipu-dotenv-789\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	return path
}

func TestApplyDotEnv(t *testing.T) {
	path := writeDotEnv(t, t.TempDir())

	cfg := &Config{}
	if err := applyDotEnv(cfg, path); err != nil {
		t.Fatalf("applyDotEnv() error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-dotenv-123456" {
		t.Errorf("LLM.APIKey: got %q", cfg.LLM.APIKey)
	}
	if cfg.Search.ZhipuKey != "zhipu-dotenv-789" {
		t.Errorf("Search.ZhipuKey: got %q", cfg.Search.ZhipuKey)
	}
}

func TestApplyDotEnvMissingFile(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{APIKey: "from-config"}}
	if err := applyDotEnv(cfg, filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
	if cfg.LLM.APIKey != "from-config" {
		t.Errorf("LLM.APIKey: got %q", cfg.LLM.APIKey)
	}
}

func TestLoadReadsDotEnvInWorkingDir(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	writeDotEnv(t, dir)
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-dotenv-123456" {
		t.Errorf("LLM.APIKey: got %q", cfg.LLM.APIKey)
	}
	if cfg.Search.ZhipuKey != "zhipu-dotenv-789" {
		t.Errorf("Search.ZhipuKey: got %q", cfg.Search.ZhipuKey)
	}
}

func TestLoadEnvironmentWinsOverDotEnv(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	writeDotEnv(t, dir)
	t.Chdir(dir)
	t.Setenv(EnvDeepSeekKey, "sk-process-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-process-env" {
		t.Errorf("LLM.APIKey: got %q, want the process environment value", cfg.LLM.APIKey)
	}
	if cfg.Search.ZhipuKey != "zhipu-dotenv-789" {
		t.Errorf("Search.ZhipuKey: got %q", cfg.Search.ZhipuKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	clearKeyEnv(t)

	keys := CheckAPIKeys(&Config{})
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	for _, k := range keys {
		if k.IsSet || k.Source != KeySourceNone || k.Masked != "" {
			t.Errorf("%s should be unset: %+v", k.Name, k)
		}
	}
	missing := MissingRequired(keys)
	if len(missing) != 1 || missing[0] != EnvDeepSeekKey {
		t.Errorf("MissingRequired: got %v", missing)
	}
}

func TestCheckAPIKeysSources(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(EnvZhipuKey, "zhipu-env-key-0000")

	cfg := &Config{
		LLM:    LLMConfig{APIKey: "sk-config-key-1234"},
		Search: SearchConfig{ZhipuKey: "zhipu-env-key-0000"},
	}
	keys := CheckAPIKeys(cfg)
	if keys[0].Source != KeySourceConfig || keys[0].Masked != "sk-...234" {
		t.Errorf("DeepSeek: got %+v", keys[0])
	}
	if keys[1].Source != KeySourceEnv {
		t.Errorf("Zhipu source: got %q, want env", keys[1].Source)
	}
	if len(MissingRequired(keys)) != 0 {
		t.Error("no required key should be missing")
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() returned empty string")
	}
}
