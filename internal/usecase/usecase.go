package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/shortreel/shortreel/internal/domain/cropplan"
	"github.com/shortreel/shortreel/internal/domain/facetrack"
	"github.com/shortreel/shortreel/internal/domain/highlights"
	"github.com/shortreel/shortreel/internal/ports"
	"github.com/shortreel/shortreel/internal/types"
)

type Deps struct {
	Video    ports.VideoTool
	ASR      ports.ASR
	Oracle   ports.Oracle
	Detector ports.FaceDetector
	Log      logrus.FieldLogger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputVideo string
	CacheDir   string
	OutDir     string

	Constraints      highlights.Constraints
	MaxHighlights    int
	SegmentsPerChunk int
	Concurrency      int

	DetectEveryN  int
	IoUThreshold  float64
	TimeThreshold float64

	// Progress is called after each scanned frame; nil is fine.
	Progress func(done int)
}

type Result struct {
	Manifest types.Manifest
	Plans    []types.RenderPlan
}

// Run executes the full pass for one video: transcript to highlights,
// highlights to crop plans, plans to rendered clips. A video that yields
// no highlights returns an empty manifest, not an error.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log.WithField("input", filepath.Base(in.InputVideo))

	wav := filepath.Join(in.CacheDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.InputVideo, wav); err != nil {
		return Result{}, fmt.Errorf("extract audio: %w", err)
	}

	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	log.WithField("segments", len(tr.Segments)).Info("transcript ready")

	final, err := u.selectHighlights(ctx, in, tr, log)
	if err != nil {
		return Result{}, err
	}
	if len(final) == 0 {
		log.Warn("no highlights selected, nothing to render")
		return Result{Manifest: types.Manifest{Input: in.InputVideo}}, nil
	}
	log.WithField("highlights", len(final)).Info("highlights selected")

	res := Result{Manifest: types.Manifest{Input: in.InputVideo}}
	for i, h := range final {
		plan, err := u.planCrop(ctx, in, h, log)
		if err != nil {
			return Result{}, err
		}

		id := fmt.Sprintf("%03d", i+1)
		clipRel := filepath.Join("clips", id+".mp4")
		clipPath := filepath.Join(in.OutDir, clipRel)
		if err := u.d.Video.RenderClip(ctx, in.InputVideo, plan, clipPath); err != nil {
			return Result{}, fmt.Errorf("render clip %s: %w", id, err)
		}

		res.Plans = append(res.Plans, plan)
		res.Manifest.Clips = append(res.Manifest.Clips, types.ManifestClip{
			ID:       id,
			StartSec: h.Start,
			EndSec:   h.End,
			Score:    h.Score,
			Text:     h.Text,
			Reason:   h.Reason,
			File:     filepath.ToSlash(clipRel),
			CropW:    plan.CropWidth,
			CropH:    plan.CropHeight,
		})
	}
	return res, nil
}

// selectHighlights chunks the transcript and scores the chunks
// concurrently. Aggregation only runs after every in-flight chunk call
// settles, and its chronological re-sort makes the output independent of
// arrival order.
func (u Usecase) selectHighlights(ctx context.Context, in Input, tr types.Transcript, log logrus.FieldLogger) ([]types.Highlight, error) {
	chunks := highlights.ChunkSegments(tr.Segments, in.SegmentsPerChunk)
	if len(chunks) == 0 {
		return nil, nil
	}

	scorer := highlights.NewScorer(u.d.Oracle, in.Constraints, log)

	workers := in.Concurrency
	if workers <= 0 {
		workers = 1
	}

	var (
		mu    sync.Mutex
		cands []types.Candidate
		wg    sync.WaitGroup
		sem   = make(chan struct{}, workers)
	)
	for _, chunk := range chunks {
		wg.Add(1)
		go func(c types.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			got, err := scorer.ScoreChunk(ctx, c)
			if err != nil {
				// Only cancellation escapes the scorer; the join below
				// reports it once all workers stop.
				return
			}
			mu.Lock()
			cands = append(cands, got...)
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"chunks": len(chunks), "candidates": len(cands)}).Info("scoring complete")
	return highlights.Aggregate(cands, in.MaxHighlights), nil
}

// planCrop scans one highlight's frames and produces its crop
// trajectory. The frame source is released on every exit path.
func (u Usecase) planCrop(ctx context.Context, in Input, h types.Highlight, log logrus.FieldLogger) (types.RenderPlan, error) {
	fs, err := u.d.Video.OpenFrames(ctx, in.InputVideo, h.Start, h.End, in.DetectEveryN, in.CacheDir)
	if err != nil {
		return types.RenderPlan{}, fmt.Errorf("open frames for [%.1f, %.1f]: %w", h.Start, h.End, err)
	}
	defer fs.Close()

	planner := cropplan.NewPlanner(fs.FrameWidth(), fs.FrameHeight())
	tracker := facetrack.NewTracker(in.IoUThreshold, in.TimeThreshold)

	plan := types.RenderPlan{
		Highlight:  h,
		CropWidth:  planner.CropWidth(),
		CropHeight: planner.CropHeight(),
	}

	scanned := 0
	for {
		if err := ctx.Err(); err != nil {
			return types.RenderPlan{}, err
		}
		fr, ok := fs.Next()
		if !ok {
			break
		}

		dets, err := u.d.Detector.Detect(ctx, fr.ImagePath)
		if err != nil {
			if ctx.Err() != nil {
				return types.RenderPlan{}, ctx.Err()
			}
			// A failed frame means no faces this frame, never an aborted
			// scan.
			log.WithError(err).WithField("frame", fr.Idx).Debug("detector failed, treating frame as faceless")
			dets = nil
		}
		for i := range dets {
			dets[i].FrameIdx = fr.Idx
			dets[i].Timestamp = fr.Timestamp
		}

		tracker.Observe(dets)
		plan.Frames = append(plan.Frames, planner.Plan(fr.Idx, dets))

		scanned++
		if in.Progress != nil {
			in.Progress(scanned)
		}
	}
	if err := fs.Err(); err != nil {
		return types.RenderPlan{}, fmt.Errorf("frame scan: %w", err)
	}

	tracks := tracker.Tracks()
	log.WithFields(logrus.Fields{
		"start":  h.Start,
		"frames": len(plan.Frames),
		"tracks": len(tracks),
	}).Info("crop path planned")
	return plan, nil
}
