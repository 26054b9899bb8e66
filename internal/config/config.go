package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`
	JWTTTLHours int    `envconfig:"JWT_TTL_HOURS" default:"24"`

	// Storage backend: file, postgres, s3 or memory.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	DataDir        string `envconfig:"DATA_DIR" default:"./data"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`

	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Gemini settings. When GEMINI_API_KEY is empty and a secret name is
	// configured, the key is fetched from GCP Secret Manager at startup.
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	GeminiModel      string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiSecretName string `envconfig:"GEMINI_SECRET_NAME"`

	GCPProjectID string `envconfig:"GCP_PROJECT_ID"`

	// Optional Pub/Sub topic for analysis.recorded events. Empty disables
	// publishing.
	PubSubAnalysisTopic string `envconfig:"PUBSUB_ANALYSIS_TOPIC"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
