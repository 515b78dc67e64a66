package models

import "sort"

// AgentTemplate is a public starter persona users can create agents from.
// Templates are read-only and shared across tenants, so they live here
// rather than in the store.
type AgentTemplate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
	ModelID      string `json:"model_id"`
	Category     string `json:"category"`
	AvatarColor  string `json:"avatar_color"`
}

var agentTemplates = []AgentTemplate{
	{
		ID:           "general-assistant",
		Name:         "General Assistant",
		Description:  "A helpful assistant for everyday questions",
		SystemPrompt: "You are a helpful, friendly assistant. Answer questions clearly and concisely. If you are unsure about something, say so.",
		ModelID:      "meta-llama/Llama-3.1-8B-Instruct",
		Category:     "General",
		AvatarColor:  "#8B5CF6",
	},
	{
		ID:           "code-reviewer",
		Name:         "Code Reviewer",
		Description:  "Reviews code for bugs, style, and maintainability",
		SystemPrompt: "You are an experienced software engineer reviewing code. Point out bugs, security issues, and style problems. Suggest concrete improvements with short examples. Be direct but constructive.",
		ModelID:      "Qwen/Qwen2.5-Coder-32B-Instruct",
		Category:     "Coding",
		AvatarColor:  "#10B981",
	},
	{
		ID:           "writing-editor",
		Name:         "Writing Editor",
		Description:  "Edits prose for clarity and tone",
		SystemPrompt: "You are a professional editor. Improve clarity, flow, and grammar while preserving the author's voice. Explain significant edits briefly.",
		ModelID:      "meta-llama/Llama-3.3-70B-Instruct",
		Category:     "Writing",
		AvatarColor:  "#F59E0B",
	},
	{
		ID:           "study-tutor",
		Name:         "Study Tutor",
		Description:  "Explains concepts step by step",
		SystemPrompt: "You are a patient tutor. Break concepts into small steps, check understanding with short questions, and use simple examples before formal definitions.",
		ModelID:      "deepseek-ai/DeepSeek-R1-Distill-Llama-8B",
		Category:     "Education",
		AvatarColor:  "#3B82F6",
	},
	{
		ID:           "brainstorm-partner",
		Name:         "Brainstorm Partner",
		Description:  "Generates and refines ideas without judging early",
		SystemPrompt: "You are a creative brainstorming partner. Generate many varied ideas quickly, then help narrow down. Build on the user's suggestions rather than replacing them.",
		ModelID:      "NousResearch/Hermes-3-Llama-3.1-8B",
		Category:     "Creative",
		AvatarColor:  "#EC4899",
	},
}

// PublicTemplates returns the template catalog ordered by category then name.
func PublicTemplates() []AgentTemplate {
	out := make([]AgentTemplate, len(agentTemplates))
	copy(out, agentTemplates)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}
