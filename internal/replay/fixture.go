package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/collab-sentinel/internal/intervene"
	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
	"github.com/danielpatrickdp/collab-sentinel/internal/trust"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string               `json:"description"`
	Config      FixtureConfig        `json:"config"`
	Sessions    []FixtureSession     `json:"sessions"`
	Expected    []FixtureExpectation `json:"expected_results"`
}

// FixtureSession is one recorded conversation.
type FixtureSession struct {
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	Turns     []signals.Turn `json:"turns"`
}

// FixtureExpectation captures the expected final label per session.
type FixtureExpectation struct {
	SessionID string `json:"session_id"`
	Label     string `json:"label"`
}

// FixtureConfig bundles all sub-configs for a replay run.
type FixtureConfig struct {
	ClassifyEvery int                     `json:"classify_every"`
	Classifier    FixtureClassifierConfig `json:"classifier"`
	Trust         FixtureTrustConfig      `json:"trust"`
	Interventions FixtureInterveneConfig  `json:"interventions"`
}

// FixtureClassifierConfig mirrors pattern.Config with JSON tags.
type FixtureClassifierConfig struct {
	MinTurns             int `json:"min_turns"`
	ConfidenceSaturation int `json:"confidence_saturation"`
	StabilityWindow      int `json:"stability_window"`
}

// FixtureTrustConfig mirrors trust.Config with JSON tags.
type FixtureTrustConfig struct {
	CriticalityWeight float64 `json:"criticality_weight"`
	ConfidenceWeight  float64 `json:"confidence_weight"`
	VerificationBonus float64 `json:"verification_bonus"`
	ModificationDelta float64 `json:"modification_delta"`
	HistorySwing      float64 `json:"history_swing"`
	LowBandCeiling    float64 `json:"low_band_ceiling"`
	MediumBandCeiling float64 `json:"medium_band_ceiling"`
}

// FixtureInterveneConfig mirrors intervene.Config with JSON tags.
type FixtureInterveneConfig struct {
	EnforceThreshold float64 `json:"enforce_threshold"`
	SidebarThreshold float64 `json:"sidebar_threshold"`
	UnverifiedForB   int     `json:"unverified_for_b"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToSession converts a FixtureSession to a domain Session.
func (fs *FixtureSession) ToSession() Session {
	return Session{
		SessionID: fs.SessionID,
		UserID:    fs.UserID,
		Turns:     fs.Turns,
	}
}

// ToConfig converts a FixtureConfig to a replay Config, falling back to
// defaults for zero-valued sections.
func (fc *FixtureConfig) ToConfig() Config {
	cfg := DefaultConfig()
	if fc.ClassifyEvery > 0 {
		cfg.ClassifyEvery = fc.ClassifyEvery
	}
	if fc.Classifier != (FixtureClassifierConfig{}) {
		cfg.Classifier = pattern.Config{
			MinTurns:             fc.Classifier.MinTurns,
			ConfidenceSaturation: fc.Classifier.ConfidenceSaturation,
			StabilityWindow:      fc.Classifier.StabilityWindow,
		}
	}
	if fc.Trust != (FixtureTrustConfig{}) {
		cfg.Trust = trust.Config{
			CriticalityWeight: fc.Trust.CriticalityWeight,
			ConfidenceWeight:  fc.Trust.ConfidenceWeight,
			VerificationBonus: fc.Trust.VerificationBonus,
			ModificationDelta: fc.Trust.ModificationDelta,
			HistorySwing:      fc.Trust.HistorySwing,
			LowBandCeiling:    fc.Trust.LowBandCeiling,
			MediumBandCeiling: fc.Trust.MediumBandCeiling,
		}
	}
	if fc.Interventions != (FixtureInterveneConfig{}) {
		cfg.Interventions = intervene.Config{
			EnforceThreshold: fc.Interventions.EnforceThreshold,
			SidebarThreshold: fc.Interventions.SidebarThreshold,
			UnverifiedForB:   fc.Interventions.UnverifiedForB,
		}
	}
	cfg.Interventions.Trust = cfg.Trust
	return cfg
}

// ToExpectations converts fixture expectations, skipping invalid labels.
func (f *Fixture) ToExpectations() []Expectation {
	out := make([]Expectation, 0, len(f.Expected))
	for _, e := range f.Expected {
		label := pattern.Pattern(e.Label)
		if !label.Valid() {
			continue
		}
		out = append(out, Expectation{SessionID: e.SessionID, Label: label})
	}
	return out
}

// #endregion fixture-loader
