package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shortreel/shortreel/internal/config"
	"github.com/shortreel/shortreel/internal/domain/highlights"
	"github.com/shortreel/shortreel/internal/ports"
	"github.com/shortreel/shortreel/internal/ports/adapters/facedetect"
	"github.com/shortreel/shortreel/internal/ports/adapters/ffmpeg"
	"github.com/shortreel/shortreel/internal/ports/adapters/ollama"
	"github.com/shortreel/shortreel/internal/ports/adapters/openrouter"
	"github.com/shortreel/shortreel/internal/ports/adapters/retry"
	"github.com/shortreel/shortreel/internal/ports/adapters/whispercpp"
	"github.com/shortreel/shortreel/internal/usecase"
)

// Config is everything one run needs: the input video, the output and
// cache roots, and the loaded settings.
type Config struct {
	Input    string
	OutDir   string
	CacheDir string

	Settings config.Config

	Log logrus.FieldLogger

	// Progress, when set, receives the running count of scanned frames.
	Progress func(done int)
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if c.Settings.Oracle.Provider == "openrouter" {
		return openrouter.ValidateBaseURL(
			c.Settings.Oracle.BaseURL,
			c.Settings.Oracle.AllowedHosts,
		)
	}
	return nil
}

// Run processes one video end to end and writes its manifest. The run
// directory name embeds the input name and a timestamp so repeated runs
// never collide.
func Run(ctx context.Context, cfg Config) error {
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	set := cfg.Settings
	uc := usecase.New(usecase.Deps{
		Video:    ffmpeg.New(set.Tools.FFmpeg, set.Tools.FFprobe),
		ASR:      whispercpp.New(set.Tools.WhisperBin, set.Tools.WhisperModel),
		Oracle:   buildOracle(set.Oracle),
		Detector: buildDetector(set.Faces),
		Log:      log,
	})

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", hash(cfg.Input))
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	log.WithField("cache", cacheDir).Debug("workspace ready")

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(filepath.Join(runOutDir, "clips"), 0o755); err != nil {
		return err
	}
	log.WithField("out", runOutDir).Info("run output directory created")

	res, err := uc.Run(ctx, usecase.Input{
		InputVideo: cfg.Input,
		CacheDir:   cacheDir,
		OutDir:     runOutDir,
		Constraints: highlights.Constraints{
			MinDuration: set.Clips.MinDurationSec,
			MaxDuration: set.Clips.MaxDurationSec,
			MinScore:    set.Clips.MinScore,
			PerChunk:    set.Clips.PerChunk,
			Language:    set.Clips.Language,
		},
		MaxHighlights:    set.Clips.MaxHighlights,
		SegmentsPerChunk: set.Clips.SegmentsPerChunk,
		Concurrency:      set.Clips.ScoringConcurrency,
		DetectEveryN:     set.Faces.DetectEveryN,
		IoUThreshold:     set.Faces.IoUThreshold,
		TimeThreshold:    set.Faces.TimeThreshold,
		Progress:         cfg.Progress,
	})
	if err != nil {
		return err
	}
	res.Manifest.RunID = runID

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"clips":    len(res.Manifest.Clips),
		"manifest": manifestPath,
	}).Info("run complete")
	return nil
}

// RunBatch processes several inputs with shared settings. One failing
// video does not stop the rest; the joined error reports every failure.
func RunBatch(ctx context.Context, cfg Config, inputs []string) error {
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}

	var errs []error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		c := cfg
		c.Input = in
		if err := c.Validate(); err != nil {
			log.WithError(err).WithField("input", in).Error("skipping input")
			errs = append(errs, fmt.Errorf("%s: %w", in, err))
			continue
		}
		if err := Run(ctx, c); err != nil {
			log.WithError(err).WithField("input", in).Error("run failed")
			errs = append(errs, fmt.Errorf("%s: %w", in, err))
		}
	}
	return errors.Join(errs...)
}

func buildOracle(oc config.OracleConfig) ports.Oracle {
	var inner ports.Oracle
	switch oc.Provider {
	case "ollama":
		inner = ollama.New(oc.BaseURL, oc.Model)
	default:
		inner = openrouter.New(oc.APIKey, oc.Model, oc.BaseURL)
	}
	return retry.Wrap(inner, retry.WithMaxAttempts(oc.MaxAttempts))
}

func buildDetector(fc config.FacesConfig) ports.FaceDetector {
	return facedetect.New(fc.DetectorBin, facedetect.Config{
		MinConfidence: fc.MinConfidence,
		Margin:        fc.Margin,
		MaxFaces:      fc.MaxFaces,
	})
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Oracle = (*openrouter.Adapter)(nil)
var _ ports.Oracle = (*ollama.Adapter)(nil)
var _ ports.FaceDetector = (*facedetect.Adapter)(nil)
