package answerquestion

import "time"

type Config struct {
	Timeout time.Duration
	// RetryConnectionFailures fails the job for retry when the store is
	// unreachable instead of completing it with the failure text.
	RetryConnectionFailures bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:                 30 * time.Second,
		RetryConnectionFailures: true,
	}
}
