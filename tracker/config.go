package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MOTConfig holds the tuning parameters of the multi object tracker
type MOTConfig struct {
	// MaxUnmatchedTimes is the number of consecutive frames without a
	// detection before a track is removed
	MaxUnmatchedTimes int `json:"max_unmatched_times"`
	// TrackConfirmedFrames is the number of matches a new track needs
	// before it is confirmed as tracked
	TrackConfirmedFrames int `json:"track_confirmed_frames"`
	// TrackInitScoreThresh is the minimum detection score to start a track
	TrackInitScoreThresh float32 `json:"track_init_score_thresh"`
	// HighScoreThresh splits detections into high and low score groups
	HighScoreThresh float32 `json:"high_score_thresh"`
	// HighScoreIoUDistThresh is the maximum 1-IoU cost for matching high
	// score detections
	HighScoreIoUDistThresh float32 `json:"high_score_iou_dist_thresh"`
	// LowScoreIoUDistThresh is the maximum 1-IoU cost for matching low
	// score detections
	LowScoreIoUDistThresh float32 `json:"low_score_iou_dist_thresh"`
	// MinMatchIoU is the raw IoU a high score match must exceed
	MinMatchIoU float32 `json:"min_match_iou"`
	// PairScoreThresh is the pairing heuristic score a cross type pair
	// must exceed
	PairScoreThresh float32 `json:"pair_score_thresh"`
	// PairRescueForgiveness is subtracted from the unmatched count of a
	// track updated from its pair
	PairRescueForgiveness int `json:"pair_rescue_forgiveness"`
	// MinPairVotes is the number of joint observations needed before a
	// correlation is used to impute a track
	MinPairVotes int `json:"min_pair_votes"`
	// FastConfirmPairScore is the detection score a tracked pair partner
	// must exceed for a new track to be created as tracked
	FastConfirmPairScore float32 `json:"fast_confirm_pair_score"`
	// PairCorrelationAlpha is the weight of a new observation when
	// smoothing pair correlations
	PairCorrelationAlpha float32 `json:"pair_correlation_alpha"`
	// VelocityAlpha is the weight of a new observation when smoothing the
	// track velocity
	VelocityAlpha float32 `json:"velocity_alpha"`
	// ConfidenceDecay multiplies the track confidence on every prediction
	ConfidenceDecay float32 `json:"confidence_decay"`
	// BoundaryOverlapThresh is the fraction of a predicted box that must
	// remain inside the image
	BoundaryOverlapThresh float32 `json:"boundary_overlap_thresh"`
	// StdWeightPosition and StdWeightVelocity scale the Kalman noise
	StdWeightPosition float32 `json:"std_weight_position"`
	StdWeightVelocity float32 `json:"std_weight_velocity"`
}

// Weights combines the per frame signals of the single object tracker into
// a confidence
type Weights struct {
	Score  float32 `json:"score"`
	Ratio  float32 `json:"ratio"`
	IoU    float32 `json:"iou"`
	Aspect float32 `json:"aspect"`
}

// SOTConfig holds the tuning parameters of the single object tracker
type SOTConfig struct {
	// TemplateSize is the side length of the square template crop
	TemplateSize int `json:"template_size"`
	// SearchSize is the side length of the square search crop
	SearchSize int `json:"search_size"`
	// ContextAmount is the fraction of (w+h) added around the target
	ContextAmount float32 `json:"context_amount"`
	// MinBoxSize is the minimum width and height of the initial box
	MinBoxSize float32 `json:"min_box_size"`
	// KalmanWarmupFrames is the number of Kalman updates before the
	// prediction is trusted for IoU checks
	KalmanWarmupFrames int `json:"kalman_warmup_frames"`
	// ScoreHistorySize is the number of recent scores averaged
	ScoreHistorySize int `json:"score_history_size"`
	// ScoreWarmupFrames is the history length before score ratios apply
	ScoreWarmupFrames int `json:"score_warmup_frames"`
	// Occluded weights and threshold for the occlusion confidence
	Occluded       Weights `json:"occluded"`
	OccludedThresh float32 `json:"occluded_thresh"`
	// Reappear weights and threshold for the reappearance confidence
	Reappear       Weights `json:"reappear"`
	ReappearThresh float32 `json:"reappear_thresh"`
	// LostGraceFrames is the number of lost frames a non occluded target
	// is still reported as tracked
	LostGraceFrames int `json:"lost_grace_frames"`
	// LostExpandStep grows the search anchor per lost frame
	LostExpandStep float32 `json:"lost_expand_step"`
	// MaxExpandRatio caps the search anchor growth
	MaxExpandRatio float32 `json:"max_expand_ratio"`
	// ProcessNoise and MeasurementNoise of the Kalman box tracker
	ProcessNoise     float32 `json:"process_noise"`
	MeasurementNoise float32 `json:"measurement_noise"`
}

// Config is the root tracker configuration
type Config struct {
	MOT MOTConfig `json:"mot"`
	SOT SOTConfig `json:"sot"`
}

// DefaultMOTConfig returns the default multi object tracker parameters
func DefaultMOTConfig() MOTConfig {
	return MOTConfig{
		MaxUnmatchedTimes:      10,
		TrackConfirmedFrames:   2,
		TrackInitScoreThresh:   0.6,
		HighScoreThresh:        0.5,
		HighScoreIoUDistThresh: 0.7,
		LowScoreIoUDistThresh:  0.5,
		MinMatchIoU:            0.3,
		PairScoreThresh:        0.5,
		PairRescueForgiveness:  2,
		MinPairVotes:           1,
		FastConfirmPairScore:   0.5,
		PairCorrelationAlpha:   0.3,
		VelocityAlpha:          0.5,
		ConfidenceDecay:        0.9,
		BoundaryOverlapThresh:  0.5,
		StdWeightPosition:      1.0 / 20,
		StdWeightVelocity:      1.0 / 160,
	}
}

// DefaultSOTConfig returns the default single object tracker parameters
func DefaultSOTConfig() SOTConfig {
	return SOTConfig{
		TemplateSize:       127,
		SearchSize:         255,
		ContextAmount:      0.5,
		MinBoxSize:         8,
		KalmanWarmupFrames: 3,
		ScoreHistorySize:   10,
		ScoreWarmupFrames:  5,
		Occluded:           Weights{Score: 0.5, Ratio: 0.2, IoU: 0.2, Aspect: 0.1},
		OccludedThresh:     0.5,
		Reappear:           Weights{Score: 0.4, Ratio: 0.2, IoU: 0.3, Aspect: 0.1},
		ReappearThresh:     0.6,
		LostGraceFrames:    3,
		LostExpandStep:     0.1,
		MaxExpandRatio:     2.0,
		ProcessNoise:       1.0,
		MeasurementNoise:   10.0,
	}
}

// DefaultConfig returns the default configuration for both trackers
func DefaultConfig() Config {
	return Config{
		MOT: DefaultMOTConfig(),
		SOT: DefaultSOTConfig(),
	}
}

// LoadConfig loads a Config from a JSON file.  Fields omitted from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)

	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}

	const maxFileSize = 1 * 1024 * 1024

	if fileInfo.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)",
			fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)

	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks both tracker configurations
func (c Config) Validate() error {
	if err := c.MOT.Validate(); err != nil {
		return err
	}
	return c.SOT.Validate()
}

// Validate checks the multi object tracker parameters are in range
func (c MOTConfig) Validate() error {

	switch {
	case c.MaxUnmatchedTimes < 1:
		return fmt.Errorf("%w: max_unmatched_times must be >= 1, got %d",
			ErrInvalidConfig, c.MaxUnmatchedTimes)
	case c.TrackConfirmedFrames < 1:
		return fmt.Errorf("%w: track_confirmed_frames must be >= 1, got %d",
			ErrInvalidConfig, c.TrackConfirmedFrames)
	case c.PairRescueForgiveness < 0:
		return fmt.Errorf("%w: pair_rescue_forgiveness must be >= 0, got %d",
			ErrInvalidConfig, c.PairRescueForgiveness)
	case c.MinPairVotes < 1:
		return fmt.Errorf("%w: min_pair_votes must be >= 1, got %d",
			ErrInvalidConfig, c.MinPairVotes)
	case c.StdWeightPosition <= 0 || c.StdWeightVelocity <= 0:
		return fmt.Errorf("%w: kalman std weights must be positive", ErrInvalidConfig)
	}

	unit := []struct {
		name string
		v    float32
	}{
		{"track_init_score_thresh", c.TrackInitScoreThresh},
		{"high_score_thresh", c.HighScoreThresh},
		{"high_score_iou_dist_thresh", c.HighScoreIoUDistThresh},
		{"low_score_iou_dist_thresh", c.LowScoreIoUDistThresh},
		{"min_match_iou", c.MinMatchIoU},
		{"pair_score_thresh", c.PairScoreThresh},
		{"fast_confirm_pair_score", c.FastConfirmPairScore},
		{"pair_correlation_alpha", c.PairCorrelationAlpha},
		{"velocity_alpha", c.VelocityAlpha},
		{"confidence_decay", c.ConfidenceDecay},
		{"boundary_overlap_thresh", c.BoundaryOverlapThresh},
	}

	for _, u := range unit {
		if u.v < 0 || u.v > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %f",
				ErrInvalidConfig, u.name, u.v)
		}
	}

	return nil
}

// Validate checks the single object tracker parameters are in range
func (c SOTConfig) Validate() error {

	switch {
	case c.TemplateSize < 8 || c.SearchSize < c.TemplateSize:
		return fmt.Errorf("%w: template_size %d and search_size %d invalid",
			ErrInvalidConfig, c.TemplateSize, c.SearchSize)
	case c.ContextAmount < 0:
		return fmt.Errorf("%w: context_amount must be >= 0", ErrInvalidConfig)
	case c.MinBoxSize < 1:
		return fmt.Errorf("%w: min_box_size must be >= 1", ErrInvalidConfig)
	case c.ScoreHistorySize < 1 || c.ScoreWarmupFrames > c.ScoreHistorySize:
		return fmt.Errorf("%w: score_history_size %d and score_warmup_frames %d invalid",
			ErrInvalidConfig, c.ScoreHistorySize, c.ScoreWarmupFrames)
	case c.LostGraceFrames < 0 || c.KalmanWarmupFrames < 0:
		return fmt.Errorf("%w: frame counts must be >= 0", ErrInvalidConfig)
	case c.MaxExpandRatio < 1 || c.LostExpandStep < 0:
		return fmt.Errorf("%w: max_expand_ratio must be >= 1 and lost_expand_step >= 0",
			ErrInvalidConfig)
	case c.ProcessNoise <= 0 || c.MeasurementNoise <= 0:
		return fmt.Errorf("%w: kalman noise must be positive", ErrInvalidConfig)
	}

	return nil
}
