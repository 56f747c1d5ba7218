// Package saga runs a fixed sequence of persisted writes that span several
// collections. Steps are not atomic together: when one fails, the steps before
// it stay applied unless they registered a compensation.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketplace-api/internal/core/metrics"
)

type StepName string

type Status string

const (
	StatusCommitted   Status = "COMMITTED"
	StatusPartial     Status = "PARTIAL"
	StatusCompensated Status = "COMPENSATED"
	StatusAborted     Status = "ABORTED"
)

type Step struct {
	Name       StepName
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error // 可选
}

// StepError reports where the saga stopped and what was left applied.
type StepError struct {
	Saga      string
	Failed    StepName
	Completed []StepName
	Status    Status
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga %s: step %s failed (%s, completed=%v): %v",
		e.Saga, e.Failed, e.Status, e.Completed, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run executes steps in order and stops at the first failure.
func Run(ctx context.Context, l *zap.Logger, name string, steps ...Step) error {
	if l == nil {
		l = zap.NewNop()
	}
	done := make([]StepName, 0, len(steps))
	for i, st := range steps {
		if err := st.Do(ctx); err != nil {
			se := &StepError{Saga: name, Failed: st.Name, Completed: done, Err: err}
			se.Status = compensate(ctx, l, name, steps[:i])
			if len(done) == 0 {
				se.Status = StatusAborted
			}
			metrics.SagaFailures.WithLabelValues(name, string(st.Name)).Inc()
			l.Error("saga step failed",
				zap.String("saga", name),
				zap.String("step", string(st.Name)),
				zap.String("status", string(se.Status)),
				zap.Any("completed", done),
				zap.Error(err))
			return se
		}
		done = append(done, st.Name)
	}
	l.Debug("saga committed", zap.String("saga", name), zap.Int("steps", len(steps)))
	return nil
}

// compensate 逆序执行已完成步骤的补偿；任一步无补偿或补偿失败即为 PARTIAL
func compensate(ctx context.Context, l *zap.Logger, name string, applied []Step) Status {
	status := StatusCompensated
	for i := len(applied) - 1; i >= 0; i-- {
		st := applied[i]
		if st.Compensate == nil {
			status = StatusPartial
			continue
		}
		if err := st.Compensate(ctx); err != nil {
			status = StatusPartial
			l.Error("saga compensation failed",
				zap.String("saga", name),
				zap.String("step", string(st.Name)),
				zap.Error(err))
		}
	}
	return status
}
