package configuration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	OrderByName    = "name"
	OrderByHistory = "git"
)

type Configuration struct {
	// Root is the directory that contains the repositories
	Root         string   `yaml:"root"`
	Repositories []string `yaml:"repositories"`
	OutputFolder string   `yaml:"output-folder"`
	// ReportsDir is the directory, relative to each repository, with one `<commit>.json` report per commit
	ReportsDir string `yaml:"reports-dir"`
	// Order is either `name` (report filenames are assumed to sort chronologically) or `git`
	Order string `yaml:"order"`
	// Jobs is the number of repositories analyzed at the same time
	Jobs int `yaml:"jobs"`
	Log  Log `yaml:"log"`
}

type Log struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
}

func Default() Configuration {
	return Configuration{
		Root:         ".",
		Repositories: []string{"pwntools", "hosts", "ArchieveBox"},
		OutputFolder: "individual_repository_level_analysis",
		ReportsDir:   "bandit_reports",
		Order:        OrderByName,
		Jobs:         1,
		Log: Log{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// New loads the configuration at the given path on top of the defaults.
// An empty path returns the defaults.
func New(path string) (Configuration, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Configuration) Validate() error {
	switch c.Order {
	case OrderByName, OrderByHistory:
	default:
		return fmt.Errorf("invalid order '%s': must be '%s' or '%s'", c.Order, OrderByName, OrderByHistory)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("invalid jobs %d: must be at least 1", c.Jobs)
	}
	if c.OutputFolder == "" {
		return fmt.Errorf("output folder must not be empty")
	}
	if c.ReportsDir == "" {
		return fmt.Errorf("reports dir must not be empty")
	}
	return nil
}
