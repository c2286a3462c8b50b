package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Courses  CoursesConfig  `mapstructure:"courses"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port"       validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level"  validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=json text"`
}

// Supported values for DatabaseConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres redis"`
	// URL is a postgres:// DSN or a redis:// URL depending on Driver.
	URL string `mapstructure:"url" validate:"required_unless=Driver memory"`
	// AutoMigrate applies pending migrations on startup (postgres only).
	AutoMigrate bool `mapstructure:"auto_migrate"`
	// KeyPrefix namespaces every key written by the redis backend.
	KeyPrefix string `mapstructure:"key_prefix" validate:"required_if=Driver redis"`
}

// CoursesConfig holds business rules for courses.
type CoursesConfig struct {
	// MaxStudents caps enrollment per course; 0 disables the limit.
	MaxStudents int `mapstructure:"max_students" validate:"gte=0"`
}
