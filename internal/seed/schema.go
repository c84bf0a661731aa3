package seed

// File is the top-level structure of a seed file.
type File struct {
	Links []Entry `yaml:"links"`
}

// Entry declares one link that should exist.
type Entry struct {
	Code      string `yaml:"code"`
	TargetURL string `yaml:"target_url"`
}
