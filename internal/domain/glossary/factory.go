package glossary

import "fmt"

// Driver identifiers supported by the glossary domain.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// New creates a glossary store based on the provided configuration.
func New(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported glossary store driver: %s", driver)
	}
}
