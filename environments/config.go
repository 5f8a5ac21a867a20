package environments

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API       APIConfig
	Execute   ExecuteConfig
	Import    ImportConfig
	Poll      PollConfig
	Simulator SimulatorConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ExecuteConfig struct {
	BatchSize int
	Offset    int
}

type ImportConfig struct {
	// PhonePrefix is prepended to normalized numbers that do not already
	// start with it (country code, digits only). Empty disables prefixing.
	PhonePrefix string
}

type PollConfig struct {
	Interval time.Duration
}

type SimulatorConfig struct {
	Port string
}

func Load() *Config {
	// A missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	return &Config{
		API: APIConfig{
			BaseURL: GetEnv("CAMPAIGN_API_BASE_URL", "https://whatsappmarket.applytocollege.pk"),
			Timeout: GetEnvAsDuration("CAMPAIGN_API_TIMEOUT", 30*time.Second),
		},
		Execute: ExecuteConfig{
			BatchSize: GetEnvAsInt("CAMPAIGN_EXECUTE_BATCH_SIZE", 10),
			Offset:    GetEnvAsInt("CAMPAIGN_EXECUTE_OFFSET", 0),
		},
		Import: ImportConfig{
			PhonePrefix: GetEnv("IMPORT_PHONE_PREFIX", ""),
		},
		Poll: PollConfig{
			Interval: GetEnvAsDuration("STATUS_POLL_INTERVAL", 30*time.Second),
		},
		Simulator: SimulatorConfig{
			Port: GetEnv("SIMULATOR_PORT", "8089"),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
