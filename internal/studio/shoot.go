package studio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/prompts"
)

// resolveScenes expands a ShootRequest into the concrete scene list.
func resolveScenes(req ShootRequest) ([]prompts.Scene, error) {
	if len(req.SceneIDs) > 0 {
		scenes := make([]prompts.Scene, 0, len(req.SceneIDs))
		for _, id := range req.SceneIDs {
			s, ok := prompts.SceneByID(id)
			if !ok {
				return nil, fmt.Errorf("unknown scene %q", id)
			}
			scenes = append(scenes, s)
		}
		return scenes, nil
	}

	count := req.SceneCount
	if count < 1 {
		return nil, fmt.Errorf("shoot selects no scenes")
	}
	if count > len(prompts.DefaultScenes) {
		count = len(prompts.DefaultScenes)
	}
	return prompts.DefaultScenes[:count], nil
}

// RunShoot renders every requested scene. Launches are staggered by the
// configured delay to soften burst rate against the provider's quota and
// bounded by the concurrency semaphore. Each scene lands in a terminal
// done/failed state; one scene's failure never aborts the others, except
// that detected quota exhaustion trips a circuit breaker which fails the
// remaining scenes fast.
func (s *Studio) RunShoot(ctx context.Context, req ShootRequest, onProgress ProgressFunc) (*ShootResult, error) {
	scenes, err := resolveScenes(req)
	if err != nil {
		return nil, err
	}
	if req.Product.Data == nil {
		return nil, fmt.Errorf("product photo is required")
	}

	desc := "jewelry piece"
	opts := prompts.BuildOptions{ItemSize: req.ItemSize, EngraveLogo: req.Logo != nil}
	if req.Analysis != nil {
		desc = prompts.ItemDescription(req.Analysis.ItemType, req.Analysis.Style, req.Analysis.Materials)
	}

	refs := []ai.InlineImage{fitReference(req.Product)}
	if req.Logo != nil {
		refs = append(refs, fitReference(*req.Logo))
	}

	total := len(scenes)
	result := &ShootResult{Scenes: make([]SceneResult, total)}

	// Circuit breaker: fail remaining scenes once quota is exhausted.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var quotaExhausted int64

	sem := make(chan struct{}, s.opts.MaxConcurrency)
	var mu sync.Mutex
	var done int64
	var wg sync.WaitGroup

	finish := func(i int, sr SceneResult) {
		mu.Lock()
		result.Scenes[i] = sr
		mu.Unlock()
		count := atomic.AddInt64(&done, 1)
		if onProgress != nil {
			onProgress(int(count), total, sr)
		}
	}

	for i, scene := range scenes {
		// Stagger before each launch; the first goes out immediately.
		if i > 0 && s.opts.StaggerDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.StaggerDelay):
			}
		}

		if atomic.LoadInt64(&quotaExhausted) > 0 {
			finish(i, SceneResult{
				SceneID: scene.ID,
				Label:   scene.Label,
				Status:  StatusFailed,
				Err:     fmt.Errorf("render %s: skipped (API quota exhausted)", scene.ID),
			})
			continue
		}

		select {
		case <-ctx.Done():
			finish(i, SceneResult{SceneID: scene.ID, Label: scene.Label, Status: StatusFailed, Err: ctx.Err()})
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, scene prompts.Scene) {
			defer wg.Done()
			defer func() { <-sem }()

			resp, err := s.generateWithRetry(ctx, ai.ImageRequest{
				Model:  s.opts.ImageModel,
				Prompt: prompts.BuildScenePrompt(desc, scene, opts),
				Images: refs,
			})
			if err != nil {
				errStr := err.Error()
				if strings.Contains(errStr, "RESOURCE_EXHAUSTED") || strings.Contains(errStr, "quota") {
					atomic.StoreInt64(&quotaExhausted, 1)
					cancel()
				}
				finish(i, SceneResult{
					SceneID: scene.ID,
					Label:   scene.Label,
					Status:  StatusFailed,
					Err:     fmt.Errorf("render %s: %w", scene.ID, err),
				})
				return
			}

			finish(i, SceneResult{
				SceneID: scene.ID,
				Label:   scene.Label,
				Status:  StatusDone,
				Image:   resp.Image,
			})
		}(i, scene)
	}

	wg.Wait()
	return result, nil
}
