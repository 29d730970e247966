package config

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "deepseek-coder-v2"
)

// Default returns the configuration written on first install.
func Default() Config {
	return Config{
		Ollama: OllamaSettings{
			Host:        DefaultHost,
			Model:       DefaultModel,
			Timeout:     120,
			NumCtx:      32768,
			NumPredict:  2048,
			Temperature: 0.2,
			TopP:        0.9,
			MaxTokens:   32768,
		},
		Agent: AgentSettings{
			UseOptimized:                      true,
			EnableCaching:                     true,
			EnableStreaming:                   true,
			ParallelAnalysis:                  true,
			MaxContextLength:                  32768,
			CacheTTLMinutes:                   15,
			MaxConversationHistory:            50,
			EnableDangerousActionConfirmation: true,
		},
		Analyzer: AnalyzerSettings{
			EnableASTParsing:        true,
			CacheTTLMinutes:         5,
			MaxComplexityThreshold:  50,
			EnableConflictDetection: true,
			ParallelProcessing:      true,
		},
		Editor: EditorSettings{
			Default:          "code",
			Backup:           true,
			AutoFormat:       true,
			SmartSuggestions: true,
		},
		Project: ProjectSettings{
			IgnorePatterns:    DefaultIgnorePatterns(),
			MaxFileSize:       "5MB",
			ContextLines:      50,
			AutoAnalyzeOnEdit: true,
		},
		UI: UISettings{
			ColorScheme:          "dark",
			ShowProgress:         true,
			VerboseErrors:        false,
			TypingAnimation:      true,
			ShowPerformanceStats: true,
		},
		Performance: PerformanceSettings{
			EnableProfiling:  false,
			LogResponseTimes: true,
			OptimizeForSpeed: true,
			MemoryLimitMB:    512,
		},
	}
}

// DefaultIgnorePatterns returns a fresh copy of the global ignore list.
func DefaultIgnorePatterns() []string {
	return []string{".git", "node_modules", "__pycache__", "*.pyc", ".conflict-deepcode"}
}

// DefaultLocal returns the template written by a project init.
func DefaultLocal() Local {
	return Local{
		IgnorePatterns: []string{".git", "node_modules", "__pycache__", "*.pyc", ".deepcode"},
	}
}
