package models

import "fmt"

// ModelID identifies a backend model. The set is closed.
type ModelID string

const (
	OpenLlama        ModelID = "open_llama"
	Mistral          ModelID = "mistral"
	DeepseekLlama70B ModelID = "deepseek_llama70b"
	GeminiFlash      ModelID = "gemini_flash"
)

const DefaultModel = OpenLlama

var modelOrder = []ModelID{OpenLlama, Mistral, DeepseekLlama70B, GeminiFlash}

var modelLabels = map[ModelID]string{
	OpenLlama:        "🦙 Open LLaMA",
	Mistral:          "🧠 Mistral",
	DeepseekLlama70B: "🦾 Deepseek LLaMA 70B",
	GeminiFlash:      "💎 Gemini Flash",
}

// Models returns every selectable model in display order.
func Models() []ModelID {
	out := make([]ModelID, len(modelOrder))
	copy(out, modelOrder)
	return out
}

func ParseModel(s string) (ModelID, error) {
	id := ModelID(s)
	if _, ok := modelLabels[id]; !ok {
		return "", fmt.Errorf("unknown model %q", s)
	}
	return id, nil
}

func (m ModelID) Valid() bool {
	_, ok := modelLabels[m]
	return ok
}

func (m ModelID) Label() string {
	if label, ok := modelLabels[m]; ok {
		return label
	}
	return string(m)
}

func (m ModelID) String() string { return string(m) }

// Next returns the model after m in display order, wrapping around.
func (m ModelID) Next() ModelID {
	return m.step(1)
}

// Prev returns the model before m in display order, wrapping around.
func (m ModelID) Prev() ModelID {
	return m.step(-1)
}

func (m ModelID) step(delta int) ModelID {
	for i, id := range modelOrder {
		if id == m {
			n := len(modelOrder)
			return modelOrder[((i+delta)%n+n)%n]
		}
	}
	return DefaultModel
}
