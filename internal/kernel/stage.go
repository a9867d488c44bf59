package kernel

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Stage is one step of a pipeline. A stage sees the complete output of
// every stage before it; stages communicate through state captured by
// their Run closures, so dynamic sizes discovered by one stage are read by
// the next one only after the barrier.
type Stage struct {
	Name string
	Run  func(ctx context.Context, p *Pool) error
}

// StageObserver receives the duration of every completed stage.
type StageObserver func(stage string, d time.Duration)

// Sequence runs stages in order, stopping at the first error.
func (p *Pool) Sequence(ctx context.Context, log *zap.Logger, observe StageObserver, stages ...Stage) error {
	for _, st := range stages {
		start := time.Now()
		if err := st.Run(ctx, p); err != nil {
			return errors.Wrapf(err, "stage %s", st.Name)
		}
		d := time.Since(start)
		if observe != nil {
			observe(st.Name, d)
		}
		if log != nil {
			log.Debug("stage done", zap.String("stage", st.Name), zap.Duration("took", d))
		}
	}
	return nil
}
