package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/BaSui01/topicflow/types"
)

// Plan is the compiled, flat, dependency-ordered list of tasks for one run.
// Every prerequisite appears before the task that consumes its output.
type Plan struct {
	Tasks      []Task           `json:"tasks"`
	CoreCount  int              `json:"core_count"`
	Workspace  string           `json:"workspace"`
	Advisories []types.Advisory `json:"advisories,omitempty"`
}

// Fingerprint returns a stable digest of the plan's tasks. The run-scoped
// workspace path is left out, so two compilations of the same document
// have equal fingerprints whichever workspace they were compiled for.
func (p *Plan) Fingerprint() string {
	tasks := make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		tasks[i] = withoutWorkspace(t)
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Kinds returns the kind of every task, in plan order.
func (p *Plan) Kinds() []Kind {
	kinds := make([]Kind, len(p.Tasks))
	for i, t := range p.Tasks {
		kinds[i] = t.Kind
	}
	return kinds
}

func withoutWorkspace(t Task) Task {
	t = t.Clone()
	t.Workspace = ""
	for i := range t.Subtasks {
		t.Subtasks[i] = withoutWorkspace(t.Subtasks[i])
	}
	return t
}
