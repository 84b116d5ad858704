package config

// NewTuningForTest creates a Tuning pointed at the given file path
func NewTuningForTest(path string) *Tuning {
	return &Tuning{path: path}
}
