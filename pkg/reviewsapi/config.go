package reviewsapi

import "time"

// Config represents the configuration for the reviews backend client
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:1337
	BaseURL string

	// Timeout bounds every request, including the reachability probe
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
