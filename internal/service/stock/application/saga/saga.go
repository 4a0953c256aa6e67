// internal/service/stock/application/saga/saga.go
package saga

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
)

// Step 是 Saga 中一个有名字的本地提交。
// 步骤严格按声明顺序执行，第 N 步可以依赖第 N-1 步写进共享状态的结果。
type Step struct {
	Name string
	Run  func(ctx context.Context) error
	// Compensate 在它之后的某一步失败时被调用，用于语义上撤销本步骤。
	// 为 nil 表示该步骤无需补偿（或本次执行没有可用的补偿依据）。
	Compensate func(ctx context.Context) error
}

// CompensationOutcome 记录一次补偿动作的结果。
type CompensationOutcome struct {
	Step string
	Err  error
}

// Result 描述一次失败的 Saga 执行：哪一步失败、错误是什么、
// 以及按位置倒序触发的补偿各自的结果。成功的执行没有 Result。
type Result struct {
	FailedStep    string
	StepErr       error
	Compensations []CompensationOutcome
}

// Compensated 返回是否所有触发的补偿都成功了。
// 没有任何补偿被触发时也返回 true。
func (r *Result) Compensated() bool {
	for _, c := range r.Compensations {
		if c.Err != nil {
			return false
		}
	}
	return true
}

// Execution 按顺序走一遍步骤列表，并维护补偿栈。
// 这是一个一次性对象，每次 Saga 调用都重新构建。
type Execution struct {
	name   string
	tracer trace.Tracer
	steps  []Step
}

// NewExecution 创建一次 Saga 执行。name 用作 Span 前缀。
func NewExecution(name string, tracer trace.Tracer, steps []Step) *Execution {
	return &Execution{name: name, tracer: tracer, steps: steps}
}

// Run 依次执行步骤。第 i 步失败时，对前 i-1 步中注册了补偿的步骤
// 按与提交相反的顺序逐个补偿，然后返回失败详情；补偿失败不会中断
// 其余补偿。全部成功时返回 nil。
func (e *Execution) Run(ctx context.Context) *Result {
	var committed []Step

	for _, step := range e.steps {
		stepCtx, span := e.tracer.Start(ctx, e.name+"."+step.Name)
		err := step.Run(stepCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()

			return &Result{
				FailedStep:    step.Name,
				StepErr:       err,
				Compensations: e.compensate(ctx, committed),
			}
		}
		span.End()

		if step.Compensate != nil {
			committed = append(committed, step)
		}
	}
	return nil
}

// compensate 倒序执行已提交步骤的补偿。
func (e *Execution) compensate(ctx context.Context, committed []Step) []CompensationOutcome {
	if len(committed) == 0 {
		return nil
	}
	logger.Ctx(ctx).Info().
		Str("saga", e.name).
		Int("count", len(committed)).
		Msg("executing compensation functions")

	outcomes := make([]CompensationOutcome, 0, len(committed))
	for i := len(committed) - 1; i >= 0; i-- {
		step := committed[i]
		compCtx, span := e.tracer.Start(ctx, e.name+".compensation."+step.Name)
		err := step.Compensate(compCtx)
		if err != nil {
			// 补偿失败需要记录严重错误，并可能需要人工介入
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Ctx(ctx).Error().Err(err).
				Str("saga", e.name).
				Str("step", step.Name).
				Msg("compensation failed")
		}
		span.End()
		outcomes = append(outcomes, CompensationOutcome{Step: step.Name, Err: err})
	}
	return outcomes
}
