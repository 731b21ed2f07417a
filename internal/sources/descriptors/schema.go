package descriptors

// File is the top-level structure of the descriptor file.
type File struct {
	Application string           `yaml:"application,omitempty"`
	References  []ReferenceProps `yaml:"references"`
	Services    []ServiceProps   `yaml:"services"`
}

// ReferenceProps describes one consumer binding.
type ReferenceProps struct {
	Name      string   `yaml:"name"`
	Interface string   `yaml:"interface"`
	Version   string   `yaml:"version,omitempty"`
	Group     string   `yaml:"group,omitempty"`
	Endpoints []string `yaml:"endpoints,omitempty"`
	Timeout   string   `yaml:"timeout,omitempty"` // Go duration, ex: "3s"
	Retries   int      `yaml:"retries,omitempty"`
}

// ServiceProps describes one published service.
type ServiceProps struct {
	Name           string `yaml:"name"`
	Kind           string `yaml:"kind,omitempty"` // rpc (default) | http
	Interface      string `yaml:"interface"`
	Implementation string `yaml:"implementation,omitempty"`
	Version        string `yaml:"version,omitempty"`
	Group          string `yaml:"group,omitempty"`
	Weight         int    `yaml:"weight,omitempty"`
}
