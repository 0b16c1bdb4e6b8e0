package main

import (
	"fmt"

	"go.uber.org/zap"

	"zappem.net/pub/kinematics/fabrik"
	"zappem.net/pub/kinematics/fabrik/internal/config"
	"zappem.net/pub/kinematics/fabrik/internal/logging"
	"zappem.net/pub/kinematics/fabrik/render"
)

// runSnapshot solves frames times against the configured target and
// writes the final pose to path as WebP.
func runSnapshot(chain *fabrik.Chain, cfg config.Config, log *zap.Logger, path string, frames int) error {
	if frames < 1 {
		return fmt.Errorf("snapshot needs at least one frame, got %d", frames)
	}
	st, err := cfg.Style()
	if err != nil {
		return err
	}
	target := cfg.TargetV()
	for i := 0; i < frames; i++ {
		rep := chain.Solve(target)
		log.Debug("solve", append(logging.SolveFields(rep), zap.Int("frame", i))...)
	}
	img := render.Frame(chain.Joints(), target, cfg.View(), st)
	if err := render.Save(path, img); err != nil {
		return err
	}
	log.Info("snapshot written",
		zap.String("path", path),
		zap.Float64("tip_error", chain.Tip().Sub(target).R()),
	)
	return nil
}
