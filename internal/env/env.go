package env

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AWSRegion          = "AWS_REGION"
	AWSID              = "AWS_ID"
	AWSSecret          = "AWS_SECRET"
	AWSToken           = "AWS_TOKEN"
	DynamoDBEndpoint   = "DYNAMODB_ENDPOINT"
	StaffSecretKey     = "STAFF_SECRET"
	CustomerSecretKey  = "CUSTOMER_SECRET"
	FeedRedisURL       = "FEED_REDIS_URL"
	FeedRedisPass      = "FEED_REDIS_PASS"
	AdminIdentities    = "ADMIN_IDENTITIES"
	SystemIdentity     = "SYSTEM_IDENTITY"
	ContinuationWindow = "CONTINUATION_WINDOW"
	EditWindow         = "EDIT_WINDOW"
	AppliedRetention   = "APPLIED_RETENTION"
	StaffAddr          = "STAFF_ADDR"
	PublicAddr         = "PUBLIC_ADDR"
	CORSOrigins        = "CORS_ORIGINS"
)

// Load reads an optional .env file. Variables already present in the
// process environment win over the file.
func Load() {
	if err := loadFile(".env"); err != nil {
		log.Printf("env: %v", err)
	}
}

// loadFile applies path to the environment. A missing file is not an error.
func loadFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Validate reports every missing required variable at once.
func Validate(required ...string) error {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("env: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}

// GetList splits a comma separated variable, dropping blank entries.
func GetList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func GetDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

func GetInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}
