// Package config centralizes the tunable parameters of the temporal core.
// Defaults are the canonical balance values; an optional YAML file and a
// few environment variables can override them for playtesting.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
)

// DebtConfig tunes the Debt Manager and the Time Engine's accrual.
type DebtConfig struct {
	AccrualRate         float64 `yaml:"accrual_rate"`          // debt seconds per frozen second
	BankruptcyThreshold float64 `yaml:"bankruptcy_threshold"`
	SurvivalTime        float64 `yaml:"survival_time"`  // seconds to exit bankruptcy
	BankruptSpeed       float64 `yaml:"bankrupt_speed"` // world speed while bankrupt
}

// AnchorConfig tunes the Anchor System.
type AnchorConfig struct {
	MaxAnchors int     `yaml:"max_anchors"`
	DecayTime  float64 `yaml:"decay_time"`
	RecallCost float64 `yaml:"recall_cost"`
}

// MomentumConfig tunes the restraint-reward meter.
type MomentumConfig struct {
	Max               float64 `yaml:"max"`
	BuildRate         float64 `yaml:"build_rate"`
	DrainRate         float64 `yaml:"drain_rate"`
	ReductionPerPoint float64 `yaml:"reduction_per_point"`
	MaxReduction      float64 `yaml:"max_reduction"`
}

// ResonanceConfig tunes the periodic wave cycle.
type ResonanceConfig struct {
	MinInterval       float64 `yaml:"min_interval"`
	MaxInterval       float64 `yaml:"max_interval"`
	WarningDuration   float64 `yaml:"warning_duration"`
	WaveDuration      float64 `yaml:"wave_duration"`
	AftermathDuration float64 `yaml:"aftermath_duration"`
	FrozenPenalty     float64 `yaml:"frozen_penalty"`
	MovingBonus       float64 `yaml:"moving_bonus"`
}

// ReversalConfig tunes the snapshot ring and rewind economics.
type ReversalConfig struct {
	RecordingDuration float64 `yaml:"recording_duration"`
	RecordingInterval float64 `yaml:"recording_interval"`
	RewindWindow      float64 `yaml:"rewind_window"`
	DebtCost          float64 `yaml:"debt_cost"`
	UsesPerLife       int     `yaml:"uses_per_life"`
	MinSnapshots      int     `yaml:"min_snapshots"`
	VisualDuration    float64 `yaml:"visual_duration"`
}

// EchoConfig tunes future-position prediction.
type EchoConfig struct {
	PredictionDuration float64 `yaml:"prediction_duration"`
	Interval           float64 `yaml:"interval"`
	BaseAlpha          float64 `yaml:"base_alpha"` // 0-1 visibility weight
	FadeRate           float64 `yaml:"fade_rate"`
}

// CloneConfig tunes the chrono-clone replay recorder.
type CloneConfig struct {
	RecordingDuration float64 `yaml:"recording_duration"`
	RecordingInterval float64 `yaml:"recording_interval"`
	MaxClones         int     `yaml:"max_clones"`
	MinFrames         int     `yaml:"min_frames"`
}

// ServerConfig tunes the demo server surface, not the core.
type ServerConfig struct {
	ListenAddr string  `yaml:"listen_addr"`
	SQLitePath string  `yaml:"sqlite_path"`
	FrameRate  int     `yaml:"frame_rate"`
	MaxFrameDT float64 `yaml:"max_frame_dt"`
}

// Config is the root configuration object.
type Config struct {
	Debt      DebtConfig      `yaml:"debt"`
	Anchors   AnchorConfig    `yaml:"anchors"`
	Momentum  MomentumConfig  `yaml:"momentum"`
	Resonance ResonanceConfig `yaml:"resonance"`
	Reversal  ReversalConfig  `yaml:"reversal"`
	Echo      EchoConfig      `yaml:"echo"`
	Clone     CloneConfig     `yaml:"clone"`
	Server    ServerConfig    `yaml:"server"`

	// Tiers is fixed code-side; kept here so Validate covers it.
	Tiers tiers.Table `yaml:"-"`
}

// Default returns the canonical balance values.
func Default() *Config {
	return &Config{
		Debt: DebtConfig{
			AccrualRate:         1.5,
			BankruptcyThreshold: 20.0,
			SurvivalTime:        5.0,
			BankruptSpeed:       5.0,
		},
		Anchors: AnchorConfig{
			MaxAnchors: 3,
			DecayTime:  30.0,
			RecallCost: 2.0,
		},
		Momentum: MomentumConfig{
			Max:               10.0,
			BuildRate:         1.0,
			DrainRate:         2.0,
			ReductionPerPoint: 0.05,
			MaxReduction:      0.50,
		},
		Resonance: ResonanceConfig{
			MinInterval:       15.0,
			MaxInterval:       20.0,
			WarningDuration:   2.0,
			WaveDuration:      1.5,
			AftermathDuration: 1.0,
			FrozenPenalty:     3.0,
			MovingBonus:       0.5,
		},
		Reversal: ReversalConfig{
			RecordingDuration: 5.0,
			RecordingInterval: 0.1,
			RewindWindow:      3.0,
			DebtCost:          8.0,
			UsesPerLife:       1,
			MinSnapshots:      10,
			VisualDuration:    1.0,
		},
		Echo: EchoConfig{
			PredictionDuration: 3.0,
			Interval:           0.1,
			BaseAlpha:          180.0 / 255.0,
			FadeRate:           0.7,
		},
		Clone: CloneConfig{
			RecordingDuration: 4.0,
			RecordingInterval: 0.05,
			MaxClones:         1,
			MinFrames:         10,
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
			SQLitePath: "temporal.db",
			FrameRate:  60,
			MaxFrameDT: 0.1,
		},
		Tiers: tiers.DefaultTable(),
	}
}

// Load reads config from a YAML file (missing file is fine), applies env
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("TEMPORAL_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("TEMPORAL_SQLITE_PATH"); v != "" {
		cfg.Server.SQLitePath = v
	}
	if v := os.Getenv("TEMPORAL_FRAME_RATE"); v != "" {
		if fr, err := strconv.Atoi(v); err == nil && fr > 0 {
			cfg.Server.FrameRate = fr
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the core assumes at construction time.
func (c *Config) Validate() error {
	if err := c.Tiers.Validate(); err != nil {
		return err
	}
	if c.Debt.AccrualRate <= 0 {
		return fmt.Errorf("config: debt accrual rate must be positive")
	}
	if c.Debt.BankruptcyThreshold <= c.Tiers[tiers.TierCritical].MaxDebt {
		return fmt.Errorf("config: bankruptcy threshold %v must exceed critical tier bound %v",
			c.Debt.BankruptcyThreshold, c.Tiers[tiers.TierCritical].MaxDebt)
	}
	if c.Debt.SurvivalTime <= 0 {
		return fmt.Errorf("config: bankruptcy survival time must be positive")
	}
	if c.Anchors.MaxAnchors <= 0 || c.Anchors.DecayTime <= 0 {
		return fmt.Errorf("config: anchor slots and decay time must be positive")
	}
	if c.Momentum.Max <= 0 || c.Momentum.BuildRate <= 0 || c.Momentum.DrainRate <= 0 {
		return fmt.Errorf("config: momentum rates must be positive")
	}
	if c.Momentum.MaxReduction < 0 || c.Momentum.MaxReduction >= 1 {
		return fmt.Errorf("config: momentum max reduction must be in [0, 1)")
	}
	if c.Resonance.MinInterval <= 0 || c.Resonance.MaxInterval < c.Resonance.MinInterval {
		return fmt.Errorf("config: resonance interval bounds out of order")
	}
	if c.Resonance.WarningDuration <= 0 || c.Resonance.WaveDuration <= 0 || c.Resonance.AftermathDuration <= 0 {
		return fmt.Errorf("config: resonance phase durations must be positive")
	}
	if c.Reversal.RecordingInterval <= 0 || c.Reversal.RecordingDuration < c.Reversal.RecordingInterval {
		return fmt.Errorf("config: reversal recording window out of order")
	}
	if c.Echo.Interval <= 0 || c.Echo.PredictionDuration < c.Echo.Interval {
		return fmt.Errorf("config: echo prediction window out of order")
	}
	if c.Echo.FadeRate <= 0 || c.Echo.FadeRate > 1 {
		return fmt.Errorf("config: echo fade rate must be in (0, 1]")
	}
	if c.Clone.RecordingInterval <= 0 || c.Clone.RecordingDuration < c.Clone.RecordingInterval {
		return fmt.Errorf("config: clone recording window out of order")
	}
	return nil
}
