package dsl

import (
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/topicflow/types"
)

// Field paths of the job document. Task fields are relative to the task
// entry; fieldCores and fieldTasks are relative to the document root.
const (
	fieldType           = "type"
	fieldSpace          = "space"
	fieldFiles          = "from.files"
	fieldHeaders        = "from.headers"
	fieldNumbered       = "from.numbered"
	fieldStopwords      = "options.stopwords"
	fieldTopics         = "options.topics"
	fieldIterations     = "options.iterations"
	fieldICM            = "options.icm"
	fieldAlpha          = "hyperparameters.alpha"
	fieldBeta           = "hyperparameters.beta"
	fieldInterval       = "hyperparameters.interval"
	fieldBurnIn         = "hyperparameters.burn_in"
	fieldSymmetricAlpha = "hyperparameters.symmetric_alpha"
	fieldOutputFilename = "output.filename"

	fieldCores = "options.cores"
	fieldTasks = "tasks"
)

// Defaults applied when an optional field is absent.
const (
	DefaultTopicCount       = 10
	DefaultIterations       = 1000
	DefaultICMIterations    = 0
	DefaultOptimizeInterval = 0
	DefaultAlpha            = 5.0
	DefaultBeta             = 0.01
	DefaultInferIterations  = 100
	DefaultSimilarityOutput = "sims.csv"
)

// Document is a parsed job document whose task entries are still raw YAML
// nodes. Keeping the nodes lets the resolver tell a missing field from a
// mistyped one and report document lines.
//
//	options:
//	  cores: 4
//	tasks:
//	  - type: train_topics
//	    space: news
//	    from:
//	      files: [a.txt, b.txt]
//	      headers: true
//	    options:
//	      topics: 20
//	    hyperparameters:
//	      interval: 10
type Document struct {
	root  *yaml.Node
	Tasks []*yaml.Node
}

// ParseDocument parses data and checks the top-level shape.
func ParseDocument(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, types.NewError(types.ErrParse, "invalid YAML").WithCause(err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, types.NewMissingFieldError("", fieldTasks)
	}

	root := deref(node.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, types.NewTypeMismatchError("", "document", "mapping", describe(root)).WithLine(root.Line)
	}

	r := fieldReader{node: root, index: -1}
	tasks, err := r.lookup(fieldTasks)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		return nil, types.NewMissingFieldError("", fieldTasks)
	}
	if tasks.Kind != yaml.SequenceNode {
		return nil, types.NewTypeMismatchError("", fieldTasks, "sequence", describe(tasks)).WithLine(tasks.Line)
	}
	if len(tasks.Content) == 0 {
		return nil, types.NewInvalidValueError("", fieldTasks, "at least one task is required").WithLine(tasks.Line)
	}

	doc := &Document{root: root, Tasks: make([]*yaml.Node, len(tasks.Content))}
	for i, t := range tasks.Content {
		doc.Tasks[i] = deref(t)
	}
	return doc, nil
}
