package guardrails

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ChainMode 校验器链执行模式
type ChainMode string

const (
	// ChainModeFailFast 快速失败模式：遇到第一个错误立即停止
	ChainModeFailFast ChainMode = "fail_fast"
	// ChainModeCollectAll 收集全部模式：执行所有校验器并收集所有结果
	ChainModeCollectAll ChainMode = "collect_all"
	// ChainModeParallel 并行模式：并行执行所有校验器并收集结果
	ChainModeParallel ChainMode = "parallel"
)

// ChainConfig 校验器链配置
type ChainConfig struct {
	// Mode 执行模式
	Mode ChainMode
}

// DefaultChainConfig 返回默认配置
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{Mode: ChainModeCollectAll}
}

// Chain 按优先级执行一组校验器并聚合结果。
// Chain 自身实现 Validator 接口，可以嵌套。
type Chain struct {
	mu         sync.RWMutex
	validators []Validator
	mode       ChainMode
}

// NewChain 创建校验器链
func NewChain(config *ChainConfig) *Chain {
	if config == nil {
		config = DefaultChainConfig()
	}
	return &Chain{mode: config.Mode}
}

// Name 返回校验器链名称
func (c *Chain) Name() string { return "guard_chain" }

// Priority 链本身优先级最高
func (c *Chain) Priority() int { return 0 }

// Add 添加校验器到链中
func (c *Chain) Add(validators ...Validator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validators = append(c.validators, validators...)
}

// Remove 从链中移除指定名称的校验器
func (c *Chain) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, v := range c.validators {
		if v.Name() == name {
			c.validators = append(c.validators[:i], c.validators[i+1:]...)
			return true
		}
	}
	return false
}

// Clear 清空所有校验器
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validators = nil
}

// Validators 返回按优先级排序的校验器副本
func (c *Chain) Validators() []Validator {
	sorted := c.snapshot()
	byPriority(sorted)
	return sorted
}

// Len 返回校验器数量
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.validators)
}

// SetMode 设置执行模式
func (c *Chain) SetMode(mode ChainMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

// GetMode 获取当前执行模式
func (c *Chain) GetMode() ChainMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *Chain) snapshot() []Validator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Validator(nil), c.validators...)
}

// Validate 执行校验器链并聚合结果。Tripwire 的优先级高于执行模式：
// 任何校验器触发 Tripwire 都会中断链并返回 *TripwireError。
func (c *Chain) Validate(ctx context.Context, query string) (*Result, error) {
	validators := c.snapshot()
	mode := c.GetMode()

	if mode == ChainModeParallel {
		return validateParallel(ctx, validators, query)
	}

	byPriority(validators)

	result := NewResult()
	var order, executed []string
	flush := func() {
		result.Metadata["execution_order"] = append([]string{}, order...)
		result.Metadata["validators_executed"] = append([]string{}, executed...)
	}

	for _, v := range validators {
		if err := ctx.Err(); err != nil {
			result.AddError(ValidationError{
				Code:     ErrCodeValidationFailed,
				Message:  "校验被取消: " + err.Error(),
				Severity: SeverityMedium,
			})
			flush()
			return result, err
		}

		order = append(order, v.Name())

		vResult, err := v.Validate(ctx, query)
		if err != nil {
			result.AddError(validatorFailure(v.Name(), err))
			if mode == ChainModeFailFast {
				flush()
				return result, err
			}
			continue
		}

		executed = append(executed, v.Name())

		if vResult.Tripwire {
			result.Merge(vResult)
			flush()
			return result, &TripwireError{ValidatorName: v.Name(), Result: result}
		}

		result.Merge(vResult)

		if mode == ChainModeFailFast && !vResult.Valid {
			break
		}
	}

	flush()
	return result, nil
}

// validateParallel 并行执行所有校验器并收集结果。
// 任何校验器触发 Tripwire 时，通过 context cancel 叫停其余校验器。
func validateParallel(ctx context.Context, validators []Validator, query string) (*Result, error) {
	result := NewResult()
	result.Metadata["execution_order"] = []string{}
	result.Metadata["validators_executed"] = []string{}
	if len(validators) == 0 {
		return result, nil
	}

	type outcome struct {
		name   string
		result *Result
		err    error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]outcome, len(validators))
	g, gctx := errgroup.WithContext(ctx)

	var tripOnce sync.Once
	var tripName string

	for i, v := range validators {
		i, v := i, v
		g.Go(func() error {
			vResult, err := v.Validate(gctx, query)
			outcomes[i] = outcome{name: v.Name(), result: vResult, err: err}
			if err == nil && vResult != nil && vResult.Tripwire {
				tripOnce.Do(func() {
					tripName = v.Name()
					cancel()
				})
			}
			// 错误在聚合阶段处理，不让 errgroup 提前终止
			return nil
		})
	}
	_ = g.Wait()

	executed := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			result.AddError(validatorFailure(o.name, o.err))
		case o.result == nil:
			// 被取消且没有产生结果
		default:
			executed = append(executed, o.name)
			result.Merge(o.result)
		}
	}
	result.Metadata["validators_executed"] = executed
	// 并行模式下执行顺序不确定
	result.Metadata["execution_order"] = executed

	if tripName != "" {
		return result, &TripwireError{ValidatorName: tripName, Result: result}
	}
	return result, nil
}

func validatorFailure(name string, err error) ValidationError {
	return ValidationError{
		Code:     ErrCodeValidationFailed,
		Message:  "校验器 " + name + " 执行失败: " + err.Error(),
		Severity: SeverityCritical,
	}
}

// byPriority 数字越小优先级越高
func byPriority(validators []Validator) {
	sort.Slice(validators, func(i, j int) bool {
		return validators[i].Priority() < validators[j].Priority()
	})
}
