// Package config defines the YAML configuration shared between the installer
// and the Python agent CLI. The installer writes the defaults once; the agent
// reads the file on every start.
package config

// Config is the full ~/.conflict-deepcode/config.yaml document.
type Config struct {
	Ollama      OllamaSettings      `yaml:"ollama" json:"ollama"`
	Agent       AgentSettings       `yaml:"agent" json:"agent"`
	Analyzer    AnalyzerSettings    `yaml:"analyzer" json:"analyzer"`
	Editor      EditorSettings      `yaml:"editor" json:"editor"`
	Project     ProjectSettings     `yaml:"project" json:"project"`
	UI          UISettings          `yaml:"ui" json:"ui"`
	Performance PerformanceSettings `yaml:"performance" json:"performance"`
}

type OllamaSettings struct {
	Host        string  `yaml:"host" json:"host"`
	Model       string  `yaml:"model" json:"model"`
	Timeout     int     `yaml:"timeout" json:"timeout"`
	NumCtx      int     `yaml:"num_ctx" json:"num_ctx"`
	NumPredict  int     `yaml:"num_predict" json:"num_predict"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	TopP        float64 `yaml:"top_p" json:"top_p"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

type AgentSettings struct {
	UseOptimized                      bool `yaml:"use_optimized" json:"use_optimized"`
	EnableCaching                     bool `yaml:"enable_caching" json:"enable_caching"`
	EnableStreaming                   bool `yaml:"enable_streaming" json:"enable_streaming"`
	ParallelAnalysis                  bool `yaml:"parallel_analysis" json:"parallel_analysis"`
	MaxContextLength                  int  `yaml:"max_context_length" json:"max_context_length"`
	CacheTTLMinutes                   int  `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	MaxConversationHistory            int  `yaml:"max_conversation_history" json:"max_conversation_history"`
	EnableDangerousActionConfirmation bool `yaml:"enable_dangerous_action_confirmation" json:"enable_dangerous_action_confirmation"`
}

type AnalyzerSettings struct {
	EnableASTParsing        bool `yaml:"enable_ast_parsing" json:"enable_ast_parsing"`
	CacheTTLMinutes         int  `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	MaxComplexityThreshold  int  `yaml:"max_complexity_threshold" json:"max_complexity_threshold"`
	EnableConflictDetection bool `yaml:"enable_conflict_detection" json:"enable_conflict_detection"`
	ParallelProcessing      bool `yaml:"parallel_processing" json:"parallel_processing"`
}

type EditorSettings struct {
	Default          string `yaml:"default" json:"default"`
	Backup           bool   `yaml:"backup" json:"backup"`
	AutoFormat       bool   `yaml:"auto_format" json:"auto_format"`
	SmartSuggestions bool   `yaml:"smart_suggestions" json:"smart_suggestions"`
}

// ProjectSettings holds the global project defaults. Name, Description and
// Language are only ever filled from a project's local .deepcode/config.yaml.
type ProjectSettings struct {
	Name              string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description       string   `yaml:"description,omitempty" json:"description,omitempty"`
	Language          string   `yaml:"language,omitempty" json:"language,omitempty"`
	IgnorePatterns    []string `yaml:"ignore_patterns" json:"ignore_patterns"`
	MaxFileSize       string   `yaml:"max_file_size" json:"max_file_size"`
	ContextLines      int      `yaml:"context_lines" json:"context_lines"`
	AutoAnalyzeOnEdit bool     `yaml:"auto_analyze_on_edit" json:"auto_analyze_on_edit"`
}

type UISettings struct {
	ColorScheme          string `yaml:"color_scheme" json:"color_scheme"`
	ShowProgress         bool   `yaml:"show_progress" json:"show_progress"`
	VerboseErrors        bool   `yaml:"verbose_errors" json:"verbose_errors"`
	TypingAnimation      bool   `yaml:"typing_animation" json:"typing_animation"`
	ShowPerformanceStats bool   `yaml:"show_performance_stats" json:"show_performance_stats"`
}

type PerformanceSettings struct {
	EnableProfiling  bool `yaml:"enable_profiling" json:"enable_profiling"`
	LogResponseTimes bool `yaml:"log_response_times" json:"log_response_times"`
	OptimizeForSpeed bool `yaml:"optimize_for_speed" json:"optimize_for_speed"`
	MemoryLimitMB    int  `yaml:"memory_limit_mb" json:"memory_limit_mb"`
}

// Local is the per-project .deepcode/config.yaml document.
type Local struct {
	Project        LocalProject `yaml:"project"`
	IgnorePatterns []string     `yaml:"ignore_patterns"`
}

type LocalProject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}
