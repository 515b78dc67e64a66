package models

// ModelOption describes one entry in the fixed model catalog. Agent writes
// are validated against this table; it never changes at runtime.
type ModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	MaxTokens   int    `json:"max_tokens"`
}

var AvailableModels = []ModelOption{
	{
		ID:          "meta-llama/Llama-3.2-3B-Instruct",
		Name:        "Llama 3.2 3B Instruct",
		Description: "Fast and efficient chat model",
		Category:    "General Purpose",
		MaxTokens:   2048,
	},
	{
		ID:          "meta-llama/Llama-3.1-8B-Instruct",
		Name:        "Llama 3.1 8B Instruct",
		Description: "More capable, balanced performance",
		Category:    "General Purpose",
		MaxTokens:   4096,
	},
	{
		ID:          "meta-llama/Llama-3.3-70B-Instruct",
		Name:        "Llama 3.3 70B Instruct",
		Description: "Most capable Llama model",
		Category:    "General Purpose",
		MaxTokens:   4096,
	},
	{
		ID:          "Qwen/Qwen2.5-7B-Instruct",
		Name:        "Qwen 2.5 7B Instruct",
		Description: "Multilingual support, strong reasoning",
		Category:    "General Purpose",
		MaxTokens:   4096,
	},
	{
		ID:          "Qwen/Qwen2.5-Coder-32B-Instruct",
		Name:        "Qwen 2.5 Coder 32B",
		Description: "Specialized for coding tasks",
		Category:    "Coding",
		MaxTokens:   4096,
	},
	{
		ID:          "deepseek-ai/DeepSeek-R1-Distill-Llama-8B",
		Name:        "DeepSeek R1 Distill 8B",
		Description: "Strong reasoning and structured outputs",
		Category:    "Reasoning",
		MaxTokens:   4096,
	},
	{
		ID:          "deepseek-ai/DeepSeek-V3",
		Name:        "DeepSeek V3",
		Description: "Advanced reasoning model",
		Category:    "Reasoning",
		MaxTokens:   4096,
	},
	{
		ID:          "NousResearch/Hermes-3-Llama-3.1-8B",
		Name:        "Hermes 3 Llama 8B",
		Description: "Function calling and tool use",
		Category:    "Advanced",
		MaxTokens:   4096,
	},
	{
		ID:          "NousResearch/Hermes-4-70B",
		Name:        "Hermes 4 70B",
		Description: "Most capable Hermes model",
		Category:    "Advanced",
		MaxTokens:   4096,
	},
	{
		ID:          "openai/gpt-oss-120b",
		Name:        "GPT OSS 120B",
		Description: "Large open source model",
		Category:    "Advanced",
		MaxTokens:   4096,
	},
	{
		ID:          "moonshotai/Kimi-K2-Instruct-0905",
		Name:        "Kimi K2 Instruct",
		Description: "High performance instruction model",
		Category:    "Advanced",
		MaxTokens:   4096,
	},
}

// LookupModel returns the catalog entry for id, or false if the id is not in
// the catalog.
func LookupModel(id string) (ModelOption, bool) {
	for _, m := range AvailableModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelOption{}, false
}

func IsValidModelID(id string) bool {
	_, ok := LookupModel(id)
	return ok
}

func IsValidTemperature(t float64) bool {
	return t >= 0 && t <= 2
}

func IsValidMaxTokens(n int) bool {
	return n > 0 && n <= 4096
}
