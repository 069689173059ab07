package dsl

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/topicflow/workflow"
)

// Artifact extensions.
const (
	InstanceExt = ".mallet"
	TopicsExt   = ".topics"
)

// SpaceInstanceName is the instance file a space trains from.
func SpaceInstanceName(space string) string {
	return space + InstanceExt
}

// BaseName strips directory and extension: "dir/a.txt" -> "a".
func BaseName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// InferInstanceName is the instance file converted from one infer source.
func InferInstanceName(file string) string {
	return BaseName(file) + InstanceExt
}

// InferTopicsName is the doc-topics file inferred from one source.
func InferTopicsName(file string) string {
	return BaseName(file) + TopicsExt
}

// Expander attaches implicit prerequisite tasks and derived artifact names.
// It reads the same raw entry the task was resolved from, so a prerequisite
// conversion sees exactly the fields the user wrote.
type Expander struct {
	resolver *Resolver
}

// NewExpander creates an Expander that resolves prerequisites with r.
func NewExpander(r *Resolver) *Expander {
	return &Expander{resolver: r}
}

// Expand returns task with derived names filled in and Subtasks attached.
// The input task is not modified.
func (x *Expander) Expand(task workflow.Task, entry *yaml.Node, index int, opts GlobalOptions) (workflow.Task, error) {
	task = task.Clone()
	reader := fieldReader{node: entry, kind: task.Kind.String(), index: index}

	switch task.Kind {
	case workflow.KindConvert:
		task.Convert.OutputFile = SpaceInstanceName(task.Convert.SpaceName)
		task.Convert.Persist = true
		task.Subtasks = nil
		return task, nil

	case workflow.KindTrain:
		conv, err := x.resolver.resolveConvert(reader)
		if err != nil {
			return workflow.Task{}, err
		}
		conv.OutputFile = SpaceInstanceName(conv.SpaceName)
		conv.ReuseSpaceVocabulary = false
		task.Train.InputFile = conv.OutputFile
		task.Subtasks = []workflow.Task{convertTask(conv, opts)}
		return task, nil

	case workflow.KindInfer:
		return x.expandInfer(task, reader, opts)

	case workflow.KindSimilarity:
		spec, err := x.resolver.resolveInfer(reader)
		if err != nil {
			return workflow.Task{}, err
		}
		infer, err := x.expandInfer(workflow.Task{
			Kind:      workflow.KindInfer,
			CoreCount: opts.CoreCount,
			Workspace: opts.Workspace,
			Infer:     spec,
		}, reader, opts)
		if err != nil {
			return workflow.Task{}, err
		}
		task.Similarity.Inputs = slices.Clone(infer.Infer.Outputs)
		task.Subtasks = []workflow.Task{infer}
		return task, nil

	default:
		return workflow.Task{}, fmt.Errorf("expand: unknown task kind %q", task.Kind)
	}
}

func (x *Expander) expandInfer(task workflow.Task, reader fieldReader, opts GlobalOptions) (workflow.Task, error) {
	template, err := x.resolver.resolveConvert(reader)
	if err != nil {
		return workflow.Task{}, err
	}

	files := task.Infer.SourceFiles
	seen := make(map[string]string, len(files))
	inputs := make([]string, 0, len(files))
	outputs := make([]string, 0, len(files))
	subtasks := make([]workflow.Task, 0, len(files))

	for i, file := range files {
		base := BaseName(file)
		if base == "" {
			n, _ := reader.lookup(fieldFiles)
			return workflow.Task{}, reader.invalid(fmt.Sprintf("%s[%d]", fieldFiles, i),
				fmt.Sprintf("%q has no base name to derive artifact names from", file), n)
		}
		if prev, dup := seen[base]; dup {
			n, _ := reader.lookup(fieldFiles)
			return workflow.Task{}, reader.invalid(fmt.Sprintf("%s[%d]", fieldFiles, i),
				fmt.Sprintf("%q and %q derive the same artifact name %q", prev, file, base), n)
		}
		seen[base] = file

		conv := *template
		conv.SourceFiles = []string{file}
		conv.OutputFile = InferInstanceName(file)
		conv.ReuseSpaceVocabulary = true

		inputs = append(inputs, conv.OutputFile)
		outputs = append(outputs, InferTopicsName(file))
		subtasks = append(subtasks, convertTask(&conv, opts))
	}

	task.Infer.Inputs = inputs
	task.Infer.Outputs = outputs
	task.Subtasks = subtasks
	return task, nil
}

func convertTask(spec *workflow.ConvertSpec, opts GlobalOptions) workflow.Task {
	return workflow.Task{
		Kind:      workflow.KindConvert,
		CoreCount: opts.CoreCount,
		Workspace: opts.Workspace,
		Convert:   spec,
	}
}
