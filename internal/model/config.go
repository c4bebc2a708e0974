package model

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

const (
	BackendSim = "sim"

	DevicesLsblk = "lsblk"
	DevicesDir   = "dir"

	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version  int      `json:"version" yaml:"version"` // fixed 0 for now
	Workers  Workers  `json:"workers" yaml:"workers"`
	Journal  Journal  `json:"journal" yaml:"journal"`
	LCD      LCD      `json:"lcd" yaml:"lcd"`
	Session  Session  `json:"session" yaml:"session"`
	Hardware Hardware `json:"hardware" yaml:"hardware"`
	Service  Service  `json:"service" yaml:"service"`
}

// Workers configures discovery and execution of worker scripts.
type Workers struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Suffix  string   `json:"suffix" yaml:"suffix"`
	Timeout Duration `json:"timeout" yaml:"timeout"`
	Watch   bool     `json:"watch" yaml:"watch"`
	Refresh *Refresh `json:"refresh,omitempty" yaml:"refresh,omitempty"`
}

type Journal struct {
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

type LCD struct {
	CommandFile string `json:"command_file" yaml:"command_file"`
}

type Session struct {
	PollInterval  Duration `json:"poll_interval" yaml:"poll_interval"`
	AnswerTimeout Duration `json:"answer_timeout" yaml:"answer_timeout"`
}

type Hardware struct {
	Backend    string `json:"backend" yaml:"backend"`
	Devices    string `json:"devices" yaml:"devices"` // "lsblk" | "dir"
	DevicesDir string `json:"devices_dir" yaml:"devices_dir"`
}

type Service struct {
	Verbose bool   `json:"verbose" yaml:"verbose"`
	Log     string `json:"log" yaml:"log"` // "stderr"|"stdout"|"discard"|path
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
// Missing fields get the schema defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return nil, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return nil, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return nil, err
	}
	if err := out.validate(time.Now()); err != nil {
		return nil, err
	}

	return &out, nil
}

// validate checks what the schema can't express on duration strings.
func (c Config) validate(now time.Time) error {
	var errs []error
	if c.Workers.Timeout.AsDuration() <= 0 {
		errs = append(errs, errors.New("workers.timeout must be positive"))
	}
	if c.Session.PollInterval.AsDuration() <= 0 {
		errs = append(errs, errors.New("session.poll_interval must be positive"))
	}
	if c.Workers.Refresh != nil {
		d, err := c.Workers.Refresh.Period(now)
		switch {
		case err != nil:
			errs = append(errs, err)
		case d < MinRefreshPeriod:
			errs = append(errs, fmt.Errorf("workers.refresh period %s is below %s", d, MinRefreshPeriod))
		}
	}
	return errors.Join(errs...)
}

// DefaultConfig returns the configuration with all schema defaults applied.
func DefaultConfig() Config {
	cfg, err := LoadConfig(strings.NewReader("version: 0\n"))
	if err != nil {
		panic(fmt.Sprintf("default config does not validate: %v", err))
	}
	return *cfg
}
