// Package config loads engine configuration from YAML with environment
// overrides for deployment-specific addresses.
package config

// #region imports
import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/collab-sentinel/internal/evolution"
	"github.com/danielpatrickdp/collab-sentinel/internal/intervene"
	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/trust"
)

// #endregion

// #region config

// Config is the full engine configuration.
type Config struct {
	DBPath              string `yaml:"db_path"`
	ClassifierAddr      string `yaml:"classifier_addr"`
	ClassifierTimeoutMs int    `yaml:"classifier_timeout_ms"`
	DebounceMs          int    `yaml:"debounce_ms"`

	Classifier    ClassifierConfig   `yaml:"classifier"`
	Trust         TrustConfig        `yaml:"trust"`
	Interventions InterventionConfig `yaml:"interventions"`
	Evolution     EvolutionConfig    `yaml:"evolution"`
}

// ClassifierConfig mirrors pattern.Config with YAML tags.
type ClassifierConfig struct {
	MinTurns             int `yaml:"min_turns"`
	ConfidenceSaturation int `yaml:"confidence_saturation"`
	StabilityWindow      int `yaml:"stability_window"`
}

// TrustConfig mirrors trust.Config with YAML tags.
type TrustConfig struct {
	CriticalityWeight float64 `yaml:"criticality_weight"`
	ConfidenceWeight  float64 `yaml:"confidence_weight"`
	VerificationBonus float64 `yaml:"verification_bonus"`
	ModificationDelta float64 `yaml:"modification_delta"`
	HistorySwing      float64 `yaml:"history_swing"`
	LowBandCeiling    float64 `yaml:"low_band_ceiling"`
	MediumBandCeiling float64 `yaml:"medium_band_ceiling"`
}

// InterventionConfig mirrors intervene.Config with YAML tags.
type InterventionConfig struct {
	EnforceThreshold float64 `yaml:"enforce_threshold"`
	SidebarThreshold float64 `yaml:"sidebar_threshold"`
	UnverifiedForB   int     `yaml:"unverified_for_b"`
}

// EvolutionConfig mirrors evolution.Config with YAML tags.
type EvolutionConfig struct {
	LookbackDays      int `yaml:"lookback_days"`
	OscillationWindow int `yaml:"oscillation_window"`
	TrendThreshold    int `yaml:"trend_threshold"`
}

// #endregion config

// #region defaults

// Default returns the standard configuration.
func Default() Config {
	pc := pattern.DefaultConfig()
	tc := trust.DefaultConfig()
	ic := intervene.DefaultConfig()
	ec := evolution.DefaultConfig()

	return Config{
		DBPath:              "sentinel.db",
		ClassifierAddr:      "http://localhost:5002",
		ClassifierTimeoutMs: 3000,
		DebounceMs:          2000,
		Classifier: ClassifierConfig{
			MinTurns:             pc.MinTurns,
			ConfidenceSaturation: pc.ConfidenceSaturation,
			StabilityWindow:      pc.StabilityWindow,
		},
		Trust: TrustConfig{
			CriticalityWeight: tc.CriticalityWeight,
			ConfidenceWeight:  tc.ConfidenceWeight,
			VerificationBonus: tc.VerificationBonus,
			ModificationDelta: tc.ModificationDelta,
			HistorySwing:      tc.HistorySwing,
			LowBandCeiling:    tc.LowBandCeiling,
			MediumBandCeiling: tc.MediumBandCeiling,
		},
		Interventions: InterventionConfig{
			EnforceThreshold: ic.EnforceThreshold,
			SidebarThreshold: ic.SidebarThreshold,
			UnverifiedForB:   ic.UnverifiedForB,
		},
		Evolution: EvolutionConfig{
			LookbackDays:      ec.LookbackDays,
			OscillationWindow: ec.OscillationWindow,
			TrendThreshold:    ec.TrendThreshold,
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML file over the defaults, then applies env overrides.
// An empty path skips the file and yields defaults plus env.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets deployment addresses win over the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SENTINEL_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SENTINEL_CLASSIFIER_ADDR"); v != "" {
		c.ClassifierAddr = v
	}
}

// #endregion load

// #region accessors

// DebounceWindow returns the guard's debounce duration.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ClassifierTimeout returns the remote client timeout.
func (c Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.ClassifierTimeoutMs) * time.Millisecond
}

// PatternConfig converts to the classifier's config type.
func (c Config) PatternConfig() pattern.Config {
	return pattern.Config{
		MinTurns:             c.Classifier.MinTurns,
		ConfidenceSaturation: c.Classifier.ConfidenceSaturation,
		StabilityWindow:      c.Classifier.StabilityWindow,
	}
}

// TrustConfig converts to the scorer's config type.
func (c Config) TrustConfig() trust.Config {
	return trust.Config{
		CriticalityWeight: c.Trust.CriticalityWeight,
		ConfidenceWeight:  c.Trust.ConfidenceWeight,
		VerificationBonus: c.Trust.VerificationBonus,
		ModificationDelta: c.Trust.ModificationDelta,
		HistorySwing:      c.Trust.HistorySwing,
		LowBandCeiling:    c.Trust.LowBandCeiling,
		MediumBandCeiling: c.Trust.MediumBandCeiling,
	}
}

// InterveneConfig converts to the orchestrator's config type.
func (c Config) InterveneConfig() intervene.Config {
	return intervene.Config{
		Trust:            c.TrustConfig(),
		EnforceThreshold: c.Interventions.EnforceThreshold,
		SidebarThreshold: c.Interventions.SidebarThreshold,
		UnverifiedForB:   c.Interventions.UnverifiedForB,
	}
}

// AnalyzerConfig converts to the evolution analyzer's config type.
func (c Config) AnalyzerConfig() evolution.Config {
	return evolution.Config{
		LookbackDays:      c.Evolution.LookbackDays,
		OscillationWindow: c.Evolution.OscillationWindow,
		TrendThreshold:    c.Evolution.TrendThreshold,
	}
}

// #endregion accessors
