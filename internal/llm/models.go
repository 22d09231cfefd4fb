package llm

import "fmt"

// ModelID identifies a model served by the completion endpoint.
type ModelID string

const (
	// ModelLlama8B is the fast default used for evaluation.
	ModelLlama8B ModelID = "llama-3.1-8b-instant"
	// ModelLlama70B trades latency for better question sets.
	ModelLlama70B ModelID = "llama-3.3-70b-versatile"
	// ModelDeepSeek70B is a reasoning-distilled alternative for generation.
	ModelDeepSeek70B ModelID = "deepseek-r1-distill-llama-70b"
)

var modelLabels = map[ModelID]string{
	ModelLlama8B:     "Llama 3.1 8B Instant",
	ModelLlama70B:    "Llama 3.3 70B Versatile",
	ModelDeepSeek70B: "DeepSeek R1 Distill Llama 70B",
}

// Models lists the selectable models in display order.
func Models() []ModelID {
	return []ModelID{ModelLlama8B, ModelLlama70B, ModelDeepSeek70B}
}

// Label returns a human-readable model name.
func (m ModelID) Label() string {
	if l, ok := modelLabels[m]; ok {
		return l
	}
	return string(m)
}

// ParseModel validates a model identifier against the known models.
func ParseModel(s string) (ModelID, error) {
	m := ModelID(s)
	if _, ok := modelLabels[m]; !ok {
		return "", fmt.Errorf("unknown model %q", s)
	}
	return m, nil
}
