package products

// SourceManualSeed is the provenance label of the built-in product list.
const SourceManualSeed = "manual_seed"

// seedProducts returns the built-in catalog used when the store is empty.
func seedProducts(now int64) []Product {
	return []Product{
		{
			Name:             "ChatGPT",
			Summary:          "Conversational AI assistant for writing, analysis, coding, and ideation.",
			ValueProposition: "Speeds up research, drafting, and problem solving across teams.",
			Category:         "Assistant",
			Pricing:          "Free and paid tiers",
			Features:         []string{"Natural language chat", "Code generation", "File and document analysis"},
			WebsiteURL:       "https://chat.openai.com",
			VideoURL:         "https://www.youtube.com/watch?v=JTxsNm9IdYU",
			Tags:             []string{"productivity", "writing", "coding"},
			Source:           SourceManualSeed,
			LastUpdated:      now,
		},
		{
			Name:             "Claude",
			Summary:          "AI assistant focused on long-context reasoning and safety.",
			ValueProposition: "Handles large documents and complex reasoning tasks reliably.",
			Category:         "Assistant",
			Pricing:          "Free and paid tiers",
			Features:         []string{"Long context analysis", "Structured outputs", "Strong safety alignment"},
			WebsiteURL:       "https://claude.ai",
			VideoURL:         "https://www.youtube.com/watch?v=Z3bTQ0i2lQ4",
			Tags:             []string{"analysis", "research", "writing"},
			Source:           SourceManualSeed,
			LastUpdated:      now,
		},
		{
			Name:             "Midjourney",
			Summary:          "Text-to-image generator for high-quality creative visuals.",
			ValueProposition: "Rapidly produces concept art and marketing visuals.",
			Category:         "Design",
			Pricing:          "Paid tiers",
			Features:         []string{"Text-to-image generation", "Style control", "Upscaling options"},
			WebsiteURL:       "https://www.midjourney.com",
			VideoURL:         "https://www.youtube.com/watch?v=2D6ZQyQ0QyM",
			Tags:             []string{"design", "image", "creative"},
			Source:           SourceManualSeed,
			LastUpdated:      now,
		},
		{
			Name:             "Perplexity",
			Summary:          "Answer engine that cites sources for research queries.",
			ValueProposition: "Improves research speed with sourced responses.",
			Category:         "Search",
			Pricing:          "Free and paid tiers",
			Features:         []string{"Cited answers", "Research collections", "Multi-step query refinement"},
			WebsiteURL:       "https://www.perplexity.ai",
			VideoURL:         "https://www.youtube.com/watch?v=H0M7vVd4jYg",
			Tags:             []string{"search", "research", "citations"},
			Source:           SourceManualSeed,
			LastUpdated:      now,
		},
		{
			Name:             "Runway",
			Summary:          "AI video creation and editing toolkit.",
			ValueProposition: "Enables fast video generation and editing for teams.",
			Category:         "Video",
			Pricing:          "Free and paid tiers",
			Features:         []string{"Text-to-video", "Video editing tools", "Background removal"},
			WebsiteURL:       "https://runwayml.com",
			VideoURL:         "https://www.youtube.com/watch?v=7rYj3rQ3l3g",
			Tags:             []string{"video", "creative", "editing"},
			Source:           SourceManualSeed,
			LastUpdated:      now,
		},
		{
			Name:             "GitHub Copilot",
			Summary:          "AI coding assistant embedded in editors.",
			ValueProposition: "Speeds up coding by suggesting code and tests.",
			Category:         "Developer",
			Pricing:          "Paid tiers",
			Features:         []string{"Inline code suggestions", "Chat-based code help", "Multi-language support"},
			WebsiteURL:       "https://github.com/features/copilot",
			VideoURL:         "https://www.youtube.com/watch?v=6tJxJd3sQdE",
			Tags:             []string{"coding", "developer", "productivity"},
			Source:           SourceManualSeed,
			LastUpdated:      now,
		},
	}
}
