package config

import (
	"github.com/spf13/viper"
)

// Deployment assumption: the service runs in EKS and the DB connection
// variables are set as environment variables on the pod. AWS config and the
// SQS queue URLs are handled the same way; IS_LOCAL_DEV flips everything to
// LocalStack and pretty logging.

type Config struct {
	DBHost           string `mapstructure:"DB_HOST"`
	DBPort           string `mapstructure:"DB_PORT"`
	DBUser           string `mapstructure:"DB_USER"`
	DBPassword       string `mapstructure:"DB_PASSWORD"`
	DBName           string `mapstructure:"DB_NAME"`
	ServerPort       string `mapstructure:"SERVER_PORT"`
	AWSRegion        string `mapstructure:"AWS_REGION"`
	HoursSQSQueueURL string `mapstructure:"HOURS_SQS_QUEUE_URL"`
	EmailSQSQueueURL string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	ReportingAPIURL  string `mapstructure:"REPORTING_API_URL"`
	EmailSender      string `mapstructure:"EMAIL_SENDER"`
	IsLocalDev       bool   `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1") // Default region for AWS services
	viper.SetDefault("HOURS_SQS_QUEUE_URL", "http://localstack:4566/000000000000/hours-queue")
	viper.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/email-queue")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("REPORTING_API_URL", "http://localhost:8081/")
	viper.SetDefault("EMAIL_SENDER", "attendance@volunteer-hub.example.org")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
