package dsl

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/topicflow/types"
	"github.com/BaSui01/topicflow/workflow"
)

// GlobalOptions are resolved once per document and copied into every task.
type GlobalOptions struct {
	CoreCount int
	Workspace string
}

// Resolver validates task entries field by field and fills in defaults.
// A Resolver is used for one compilation; it collects the advisories raised
// along the way.
type Resolver struct {
	advisories []types.Advisory
}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Advisories returns the non-fatal reports raised so far, in order.
func (r *Resolver) Advisories() []types.Advisory {
	return slices.Clone(r.advisories)
}

func (r *Resolver) advise(source, field, msg string) {
	r.advisories = append(r.advisories, types.Advisory{Source: source, Field: field, Message: msg})
}

// ResolveGlobal resolves the document-level options. numCPU is the number
// of logical CPUs on the host.
func (r *Resolver) ResolveGlobal(doc *Document, workspace string, numCPU int) (GlobalOptions, error) {
	reader := fieldReader{node: doc.root, index: -1}

	n, err := reader.lookup(fieldCores)
	if err != nil {
		return GlobalOptions{}, err
	}

	cores := 0
	if n == nil {
		cores = max(1, numCPU-1)
		r.advise("options", fieldCores, fmt.Sprintf("number of cores not specified, defaulting to %d", cores))
	} else {
		if cores, err = reader.optionalInt(fieldCores, 0, 1); err != nil {
			return GlobalOptions{}, err
		}
	}

	return GlobalOptions{CoreCount: cores, Workspace: workspace}, nil
}

// Resolve turns entry into a concrete task of the kind named by its "type"
// field. Derived artifact names are left for the Expander.
func (r *Resolver) Resolve(entry *yaml.Node, index int, opts GlobalOptions) (workflow.Task, error) {
	kind, err := r.resolveKind(entry, index)
	if err != nil {
		return workflow.Task{}, err
	}

	reader := fieldReader{node: entry, kind: kind.String(), index: index}
	task := workflow.Task{Kind: kind, CoreCount: opts.CoreCount, Workspace: opts.Workspace}

	switch kind {
	case workflow.KindConvert:
		task.Convert, err = r.resolveConvert(reader)
	case workflow.KindTrain:
		task.Train, err = r.resolveTrain(reader)
	case workflow.KindInfer:
		task.Infer, err = r.resolveInfer(reader)
	case workflow.KindSimilarity:
		task.Similarity, err = r.resolveSimilarity(reader)
	}
	if err != nil {
		return workflow.Task{}, err
	}
	return task, nil
}

func (r *Resolver) resolveKind(entry *yaml.Node, index int) (workflow.Kind, error) {
	if entry.Kind != yaml.MappingNode {
		return "", types.NewTypeMismatchError("", fmt.Sprintf("tasks[%d]", index), "mapping", describe(entry)).
			WithLine(entry.Line)
	}

	reader := fieldReader{node: entry, index: index}
	name, err := reader.requiredString(fieldType)
	if err != nil {
		return "", err
	}

	kind, ok := workflow.ParseKind(name)
	if !ok {
		known := make([]string, len(workflow.Kinds))
		for i, k := range workflow.Kinds {
			known[i] = k.String()
		}
		n, _ := reader.lookup(fieldType)
		return "", reader.tag(
			types.NewError(types.ErrUnknownKind,
				fmt.Sprintf("unknown task type %q (expected one of %s)", name, strings.Join(known, ", "))).
				WithField(fieldType),
			n)
	}
	return kind, nil
}

func (r *Resolver) resolveConvert(reader fieldReader) (*workflow.ConvertSpec, error) {
	space, err := reader.spaceName()
	if err != nil {
		return nil, err
	}
	files, err := reader.requiredStringList(fieldFiles)
	if err != nil {
		return nil, err
	}
	headers, err := reader.optionalBool(fieldHeaders, false)
	if err != nil {
		return nil, err
	}
	numbered, err := reader.optionalBool(fieldNumbered, false)
	if err != nil {
		return nil, err
	}
	stopwords, present, err := reader.optionalString(fieldStopwords, "")
	if err != nil {
		return nil, err
	}
	if !present {
		r.advise(reader.kind, fieldStopwords, "no stopwords file specified, using the engine's default stop list")
	}

	return &workflow.ConvertSpec{
		SpaceName:     space,
		SourceFiles:   files,
		HasHeaderRow:  headers,
		IsPreNumbered: numbered,
		StopwordFile:  stopwords,
	}, nil
}

func (r *Resolver) resolveTrain(reader fieldReader) (*workflow.TrainSpec, error) {
	space, err := reader.spaceName()
	if err != nil {
		return nil, err
	}

	spec := &workflow.TrainSpec{SpaceName: space}
	if spec.TopicCount, err = reader.optionalInt(fieldTopics, DefaultTopicCount, 1); err != nil {
		return nil, err
	}
	if spec.Iterations, err = reader.optionalInt(fieldIterations, DefaultIterations, 1); err != nil {
		return nil, err
	}
	if spec.ICMIterations, err = reader.optionalInt(fieldICM, DefaultICMIterations, 0); err != nil {
		return nil, err
	}
	if spec.Alpha, err = reader.optionalPositiveFloat(fieldAlpha, DefaultAlpha); err != nil {
		return nil, err
	}
	if spec.Beta, err = reader.optionalPositiveFloat(fieldBeta, DefaultBeta); err != nil {
		return nil, err
	}
	// burn_in defaults off the resolved interval.
	if spec.OptimizeInterval, err = reader.optionalInt(fieldInterval, DefaultOptimizeInterval, 0); err != nil {
		return nil, err
	}
	if spec.BurnIn, err = reader.optionalInt(fieldBurnIn, 2*spec.OptimizeInterval, 0); err != nil {
		return nil, err
	}
	if spec.SymmetricAlpha, err = reader.optionalBool(fieldSymmetricAlpha, false); err != nil {
		return nil, err
	}
	return spec, nil
}

func (r *Resolver) resolveInfer(reader fieldReader) (*workflow.InferSpec, error) {
	space, err := reader.spaceName()
	if err != nil {
		return nil, err
	}
	files, err := reader.requiredStringList(fieldFiles)
	if err != nil {
		return nil, err
	}
	iterations, err := reader.optionalInt(fieldIterations, DefaultInferIterations, 1)
	if err != nil {
		return nil, err
	}
	return &workflow.InferSpec{SpaceName: space, SourceFiles: files, Iterations: iterations}, nil
}

func (r *Resolver) resolveSimilarity(reader fieldReader) (*workflow.SimilaritySpec, error) {
	space, err := reader.spaceName()
	if err != nil {
		return nil, err
	}
	// from.files is consumed by the implicit infer expansion; checking it
	// here keeps the error attributed to calculate_similarity.
	if _, err := reader.requiredStringList(fieldFiles); err != nil {
		return nil, err
	}
	output, _, err := reader.optionalString(fieldOutputFilename, DefaultSimilarityOutput)
	if err != nil {
		return nil, err
	}
	if filepath.IsAbs(output) || slices.Contains(strings.Split(filepath.ToSlash(output), "/"), "..") {
		n, _ := reader.lookup(fieldOutputFilename)
		return nil, reader.invalid(fieldOutputFilename, "must be a path inside the output directory", n)
	}
	return &workflow.SimilaritySpec{SpaceName: space, OutputFile: output}, nil
}
