package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MetricsPort             string
	JWTSecret               string
	S3Bucket                string
	S3Region                string
	StorySweepInterval      string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresUrl:             getEnv("POSTGRES_URL", "http://localhost:5432"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		S3Region:                getEnv("AWS_REGION", "us-east-1"),
		StorySweepInterval:      getEnv("STORY_SWEEP_INTERVAL", "10m"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
