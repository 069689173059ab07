package workflow

import "slices"

// Kind is the closed enumeration of task kinds. Its string value is the job
// document's "type" discriminator.
type Kind string

const (
	KindConvert    Kind = "file_convert"
	KindTrain      Kind = "train_topics"
	KindInfer      Kind = "infer_topics"
	KindSimilarity Kind = "calculate_similarity"
)

// Kinds lists every task kind in declaration order.
var Kinds = []Kind{KindConvert, KindTrain, KindInfer, KindSimilarity}

// ParseKind maps a "type" discriminator to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindConvert, KindTrain, KindInfer, KindSimilarity:
		return Kind(s), true
	default:
		return "", false
	}
}

func (k Kind) String() string { return string(k) }

// Process returns the name progress events use for the stage handling k.
func (k Kind) Process() string {
	switch k {
	case KindConvert:
		return "FileConverter"
	case KindTrain:
		return "TopicTrainer"
	case KindInfer:
		return "Inferencer"
	case KindSimilarity:
		return "SimCalculator"
	default:
		return "Unknown"
	}
}

// Task is one resolved unit of work. Exactly one of the kind-specific specs
// is non-nil, matching Kind. Tasks are values: once a plan is compiled they
// are never mutated, and handlers receive a Clone.
type Task struct {
	Kind      Kind   `json:"kind"`
	CoreCount int    `json:"core_count"`
	Workspace string `json:"workspace"`

	// Subtasks are the implicit prerequisites attached by the expander.
	// Flatten moves them ahead of the task; plan entries never carry them.
	Subtasks []Task `json:"subtasks,omitempty"`

	Convert    *ConvertSpec    `json:"convert,omitempty"`
	Train      *TrainSpec      `json:"train,omitempty"`
	Infer      *InferSpec      `json:"infer,omitempty"`
	Similarity *SimilaritySpec `json:"similarity,omitempty"`
}

// ConvertSpec turns raw text files into the engine's instance format.
type ConvertSpec struct {
	SpaceName     string   `json:"space_name"`
	SourceFiles   []string `json:"source_files"`
	HasHeaderRow  bool     `json:"has_header_row"`
	IsPreNumbered bool     `json:"is_pre_numbered"`
	StopwordFile  string   `json:"stopword_file,omitempty"`
	OutputFile    string   `json:"output_file"`

	// ReuseSpaceVocabulary pipes the space's existing vocabulary into the
	// import instead of building a fresh one.
	ReuseSpaceVocabulary bool `json:"reuse_space_vocabulary"`
	// Persist writes OutputFile into the space directory rather than the
	// run workspace. Only stand-alone conversions set it.
	Persist bool `json:"persist"`
}

// TrainSpec fits a topic model for a space.
type TrainSpec struct {
	SpaceName        string  `json:"space_name"`
	InputFile        string  `json:"input_file"`
	TopicCount       int     `json:"topic_count"`
	Iterations       int     `json:"iterations"`
	ICMIterations    int     `json:"icm_iterations"`
	OptimizeInterval int     `json:"optimize_interval"`
	BurnIn           int     `json:"burn_in"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	SymmetricAlpha   bool    `json:"symmetric_alpha"`
}

// InferSpec applies a space's inferencer to new documents. Inputs and
// Outputs are index-aligned with SourceFiles.
type InferSpec struct {
	SpaceName   string   `json:"space_name"`
	SourceFiles []string `json:"source_files"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
	Iterations  int      `json:"iterations"`
}

// SimilaritySpec computes pairwise document similarity over inferred
// topic distributions.
type SimilaritySpec struct {
	SpaceName  string   `json:"space_name"`
	OutputFile string   `json:"output_file"`
	Inputs     []string `json:"inputs"`
}

// SpaceName returns the space the task belongs to.
func (t Task) SpaceName() string {
	switch t.Kind {
	case KindConvert:
		if t.Convert != nil {
			return t.Convert.SpaceName
		}
	case KindTrain:
		if t.Train != nil {
			return t.Train.SpaceName
		}
	case KindInfer:
		if t.Infer != nil {
			return t.Infer.SpaceName
		}
	case KindSimilarity:
		if t.Similarity != nil {
			return t.Similarity.SpaceName
		}
	}
	return ""
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	out := t
	if t.Subtasks != nil {
		out.Subtasks = make([]Task, len(t.Subtasks))
		for i, st := range t.Subtasks {
			out.Subtasks[i] = st.Clone()
		}
	}
	if t.Convert != nil {
		c := *t.Convert
		c.SourceFiles = slices.Clone(c.SourceFiles)
		out.Convert = &c
	}
	if t.Train != nil {
		tr := *t.Train
		out.Train = &tr
	}
	if t.Infer != nil {
		in := *t.Infer
		in.SourceFiles = slices.Clone(in.SourceFiles)
		in.Inputs = slices.Clone(in.Inputs)
		in.Outputs = slices.Clone(in.Outputs)
		out.Infer = &in
	}
	if t.Similarity != nil {
		s := *t.Similarity
		s.Inputs = slices.Clone(s.Inputs)
		out.Similarity = &s
	}
	return out
}

// Flatten returns t's subtasks depth-first, followed by t itself. The
// returned tasks carry no Subtasks.
func (t Task) Flatten() []Task {
	var out []Task
	for _, st := range t.Subtasks {
		out = append(out, st.Flatten()...)
	}
	leaf := t.Clone()
	leaf.Subtasks = nil
	return append(out, leaf)
}
