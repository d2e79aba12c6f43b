// Package llm provides the Gemini-backed AI collaborators: the text
// structurer that turns free text into profile records and the generator
// that produces tailored application kits. A deterministic template
// generator is available as an explicitly selectable fallback strategy.
package llm

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for simple tasks: skill classification, extraction.
	TierLite ModelTier = "lite"
	// TierStandard is for structured parsing and generation.
	TierStandard ModelTier = "standard"
)

// Config holds the model configuration for the AI collaborators.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// tier when the requested one is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	return ""
}
