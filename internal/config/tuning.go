package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig is the startup tuning file for the gesture core. All
// fields are optional; omitted fields fall back to the Get* defaults, so
// partial configs are safe.
type TuningConfig struct {
	// Classifier params
	SwipeThresholdPx              *float64 `json:"swipe_threshold_px,omitempty"`
	VelocityThresholdPxPerSec     *float64 `json:"velocity_threshold_px_per_sec,omitempty"`
	EarlyClassificationMultiplier *float64 `json:"early_classification_multiplier,omitempty"`

	// Arbiter params
	ArbitrationWindowMs *int     `json:"arbitration_window_ms,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`

	// Animation params
	AnimationDurationMs *int    `json:"animation_duration_ms,omitempty"`
	FrameIntervalMs     *int    `json:"frame_interval_ms,omitempty"`
	SyncReplayPolicy    *string `json:"sync_replay_policy,omitempty"` // "queue" or "interrupt"

	// Pipeline params
	SampleBufferCapacity     *int `json:"sample_buffer_capacity,omitempty"`
	ClassificationDeadlineMs *int `json:"classification_deadline_ms,omitempty"`

	// SyncGroups maps displayId to its synchronization group. Displays
	// sharing a group mirror overlay state; an empty or missing group
	// means self-only.
	SyncGroups map[string]string `json:"sync_groups,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// have a .json extension and stay under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *TuningConfig) Validate() error {
	if c.SwipeThresholdPx != nil && *c.SwipeThresholdPx <= 0 {
		return fmt.Errorf("swipe_threshold_px must be positive, got %f", *c.SwipeThresholdPx)
	}
	if c.VelocityThresholdPxPerSec != nil && *c.VelocityThresholdPxPerSec <= 0 {
		return fmt.Errorf("velocity_threshold_px_per_sec must be positive, got %f", *c.VelocityThresholdPxPerSec)
	}
	if c.EarlyClassificationMultiplier != nil && *c.EarlyClassificationMultiplier < 1 {
		return fmt.Errorf("early_classification_multiplier must be >= 1, got %f", *c.EarlyClassificationMultiplier)
	}
	if c.ConfidenceThreshold != nil {
		if *c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", *c.ConfidenceThreshold)
		}
	}
	if c.ArbitrationWindowMs != nil && *c.ArbitrationWindowMs <= 0 {
		return fmt.Errorf("arbitration_window_ms must be positive, got %d", *c.ArbitrationWindowMs)
	}
	if c.AnimationDurationMs != nil && *c.AnimationDurationMs <= 0 {
		return fmt.Errorf("animation_duration_ms must be positive, got %d", *c.AnimationDurationMs)
	}
	if c.FrameIntervalMs != nil && *c.FrameIntervalMs <= 0 {
		return fmt.Errorf("frame_interval_ms must be positive, got %d", *c.FrameIntervalMs)
	}
	if c.SampleBufferCapacity != nil && *c.SampleBufferCapacity < 2 {
		return fmt.Errorf("sample_buffer_capacity must be at least 2, got %d", *c.SampleBufferCapacity)
	}
	if c.ClassificationDeadlineMs != nil && *c.ClassificationDeadlineMs <= 0 {
		return fmt.Errorf("classification_deadline_ms must be positive, got %d", *c.ClassificationDeadlineMs)
	}
	if c.SyncReplayPolicy != nil {
		switch *c.SyncReplayPolicy {
		case "queue", "interrupt":
		default:
			return fmt.Errorf("sync_replay_policy must be \"queue\" or \"interrupt\", got %q", *c.SyncReplayPolicy)
		}
	}
	return nil
}

// GetSwipeThresholdPx returns the swipe_threshold_px value or the default.
func (c *TuningConfig) GetSwipeThresholdPx() float64 {
	if c.SwipeThresholdPx == nil {
		return 100
	}
	return *c.SwipeThresholdPx
}

// GetVelocityThresholdPxPerSec returns the velocity threshold or the default.
func (c *TuningConfig) GetVelocityThresholdPxPerSec() float64 {
	if c.VelocityThresholdPxPerSec == nil {
		return 100
	}
	return *c.VelocityThresholdPxPerSec
}

// GetEarlyClassificationMultiplier returns the early-classification
// margin or the default.
func (c *TuningConfig) GetEarlyClassificationMultiplier() float64 {
	if c.EarlyClassificationMultiplier == nil {
		return 1.5
	}
	return *c.EarlyClassificationMultiplier
}

// GetArbitrationWindow returns the arbitration window as a duration.
func (c *TuningConfig) GetArbitrationWindow() time.Duration {
	if c.ArbitrationWindowMs == nil {
		return 150 * time.Millisecond
	}
	return time.Duration(*c.ArbitrationWindowMs) * time.Millisecond
}

// GetConfidenceThreshold returns the acceptance threshold or the default.
func (c *TuningConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return 0.4
	}
	return *c.ConfidenceThreshold
}

// GetAnimationDuration returns the full open/close animation time.
func (c *TuningConfig) GetAnimationDuration() time.Duration {
	if c.AnimationDurationMs == nil {
		return 250 * time.Millisecond
	}
	return time.Duration(*c.AnimationDurationMs) * time.Millisecond
}

// GetFrameInterval returns the animation clock period.
func (c *TuningConfig) GetFrameInterval() time.Duration {
	if c.FrameIntervalMs == nil {
		return 16 * time.Millisecond
	}
	return time.Duration(*c.FrameIntervalMs) * time.Millisecond
}

// GetSyncReplayPolicy returns the sync-group replay policy or the default.
func (c *TuningConfig) GetSyncReplayPolicy() string {
	if c.SyncReplayPolicy == nil {
		return "queue"
	}
	return *c.SyncReplayPolicy
}

// GetSampleBufferCapacity returns the per-contact sample capacity.
func (c *TuningConfig) GetSampleBufferCapacity() int {
	if c.SampleBufferCapacity == nil {
		return 64
	}
	return *c.SampleBufferCapacity
}

// GetClassificationDeadline returns the abandonment deadline.
func (c *TuningConfig) GetClassificationDeadline() time.Duration {
	if c.ClassificationDeadlineMs == nil {
		return 2000 * time.Millisecond
	}
	return time.Duration(*c.ClassificationDeadlineMs) * time.Millisecond
}

// GetSyncGroups returns the display-to-group mapping (never nil).
func (c *TuningConfig) GetSyncGroups() map[string]string {
	if c.SyncGroups == nil {
		return map[string]string{}
	}
	return c.SyncGroups
}
