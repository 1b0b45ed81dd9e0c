package config

import (
	"errors"
	"regexp"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/stagepass/stagepass/internal/errs"
)

var (
	ErrConfigurationValuesError = errors.New("configuration value error")
	ErrNonDefinedTaskType       = errors.New("task type is unknown")
	ErrRepeatedTaskType         = errors.New("task type is specified more than once")
	ErrInvalidTableName         = errors.New("cascade table name is not a valid identifier")
	ErrRepeatedTableName        = errors.New("cascade table name is specified more than once")
)

// tableNamePattern is the shape every cascade table identifier must have.
// The table list is deployment configuration, never request input, but a
// malformed identifier would still end up interpolated into SQL.
var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds all application configuration parameters
type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash"`

	Database         Database   `yaml:"database"`
	DatabaseReplicas []Database `yaml:"databaseReplicas"`
	Scheduler        Scheduler  `yaml:"scheduler"`
	HTTP             HTTPServer `yaml:"http"`
	Cascade          Cascade    `yaml:"cascade"`
}

func (c *Config) Validate() error {
	err := c.Scheduler.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	err = c.Cascade.Validate()
	if err != nil {
		return errs.Wrap(ErrConfigurationValuesError, err)
	}

	return nil
}

// Database holds database config
type Database struct {
	Name     string              `yaml:"name"`
	Port     string              `yaml:"port"`
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Secret   commoncfg.SourceRef `yaml:"secret"`
	Migrator Migrator            `yaml:"migrator"`
}

// Migrator holds the goose migration directories
type Migrator struct {
	Schema string `yaml:"schema" default:"./migrations/schema"`
	Data   string `yaml:"data" default:"./migrations/data"`
}

// HTTPServer holds http server config
type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

// Scheduler holds the task queue and cron task config
type Scheduler struct {
	TaskQueue Redis  `yaml:"taskQueue"`
	Tasks     []Task `yaml:"tasks"`
}

func (s *Scheduler) Validate() error {
	checkedTasks := make(map[string]struct{}, len(s.Tasks))
	for _, task := range s.Tasks {
		_, found := DefinedTasks[task.TaskType]
		if !found {
			return ErrNonDefinedTaskType
		}

		_, found = checkedTasks[task.TaskType]
		if found {
			return ErrRepeatedTaskType
		}

		checkedTasks[task.TaskType] = struct{}{}
	}

	return nil
}

// Task holds a task config
type Task struct {
	Cronspec string `yaml:"cronspec"`
	TaskType string `yaml:"taskType"`
	Retries  int    `yaml:"retries"`
}

// Redis holds Redis client config
type Redis struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	Port     string              `yaml:"port"`
	Password commoncfg.SourceRef `yaml:"password"`
}

// Cascade holds the Pro-activation cascade config. Tables is the closed list
// of tenant-scoped tables that denormalize the partition key; when empty the
// built-in list is used.
type Cascade struct {
	Tables []string `yaml:"tables"`
}

func (c *Cascade) Validate() error {
	seen := make(map[string]struct{}, len(c.Tables))
	for _, table := range c.Tables {
		if !tableNamePattern.MatchString(table) {
			return errs.Wrapf(ErrInvalidTableName, table)
		}

		_, found := seen[table]
		if found {
			return errs.Wrapf(ErrRepeatedTableName, table)
		}

		seen[table] = struct{}{}
	}

	return nil
}
