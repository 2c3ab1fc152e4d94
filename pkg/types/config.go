package types

// EngineConfig holds settings for the parse stage.
type EngineConfig struct {
	// DialectsFile is an optional YAML file with dialects that extend or
	// override the built-in table.
	DialectsFile string `json:"dialects_file,omitempty" yaml:"dialects_file,omitempty"`

	// DefaultDialect is used when a document's hint is empty or unknown
	// (default "numbered-outline").
	DefaultDialect string `json:"default_dialect" yaml:"default_dialect"`

	// Workers bounds how many documents are parsed concurrently (default 4).
	Workers int `json:"workers" yaml:"workers"`
}

// StoreConfig holds settings for the topic store.
type StoreConfig struct {
	// DataDir is the directory holding curriculum.db and export files.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Store  StoreConfig  `json:"store" yaml:"store"`
}
