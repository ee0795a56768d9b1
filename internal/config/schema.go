package config

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Predictor PredictorConf `yaml:"predictor"`
	Page      PageConf      `yaml:"page"`
}

// PredictorConf locates the external classifier service.
type PredictorConf struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// PageConf holds the static text rendered around the form.
type PageConf struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}
