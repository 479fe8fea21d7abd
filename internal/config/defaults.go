package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8700",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Enabled: true,
			DBPath:  "~/.studiochat/transcripts.db",
		},
		Studio: StudioConfig{
			Default:    "campaign",
			PresetsDir: "~/.studiochat/presets",
		},
		Search: SearchConfig{
			Limit: 10,
		},
		UI: UIConfig{
			AutoAdvanceMs: 150,
		},
	}
}
