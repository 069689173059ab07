package dsl

import (
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/types"
	"github.com/BaSui01/topicflow/workflow"
)

// Compiler 作业文档编译器：YAML -> 扁平、按依赖排序的 workflow.Plan
type Compiler struct {
	workspace string
	numCPU    func() int
	logger    *zap.Logger
}

// CompilerOption 编译器选项
type CompilerOption func(*Compiler)

// WithCPUCount 覆盖 CPU 数量探测（测试用）
func WithCPUCount(fn func() int) CompilerOption {
	return func(c *Compiler) { c.numCPU = fn }
}

// NewCompiler 创建编译器。workspace 为本次运行的临时工作目录路径，
// 编译期间只记录路径，不创建目录。
func NewCompiler(workspace string, logger *zap.Logger, opts ...CompilerOption) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Compiler{
		workspace: workspace,
		numCPU:    runtime.NumCPU,
		logger:    logger.With(zap.String("component", "compiler")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileFile 从文件编译
func (c *Compiler) CompileFile(path string) (*workflow.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrParse, "cannot read job document "+path).WithCause(err)
	}
	return c.Compile(data)
}

// Compile 从 YAML 字节编译。任一任务被拒绝即失败，不返回部分计划。
func (c *Compiler) Compile(data []byte) (*workflow.Plan, error) {
	// 1. 解析文档结构
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	// 2. 全局选项只解析一次
	resolver := NewResolver()
	expander := NewExpander(resolver)
	opts, err := resolver.ResolveGlobal(doc, c.workspace, c.numCPU())
	if err != nil {
		return nil, err
	}

	// 3. 逐项解析 + 展开，深度优先展平
	plan := &workflow.Plan{CoreCount: opts.CoreCount, Workspace: opts.Workspace}
	for i, entry := range doc.Tasks {
		task, err := resolver.Resolve(entry, i, opts)
		if err != nil {
			return nil, err
		}
		task, err = expander.Expand(task, entry, i, opts)
		if err != nil {
			return nil, err
		}
		plan.Tasks = append(plan.Tasks, task.Flatten()...)
	}
	plan.Advisories = resolver.Advisories()

	c.logger.Debug("job compiled",
		zap.Int("entries", len(doc.Tasks)),
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int("cores", plan.CoreCount),
		zap.Int("advisories", len(plan.Advisories)),
		zap.String("fingerprint", plan.Fingerprint()),
	)
	return plan, nil
}
