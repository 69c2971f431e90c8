package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
	BackendGCS       = "gcs"
	BackendMinio     = "minio"
	AuthFirebase     = "firebase"
	AuthJWT          = "jwt"
	AuthOIDC         = "oidc"
)

type (
	Properties struct {
		Port           string        `env:"PORT" envDefault:"8080"`
		StoreBackend   string        `env:"STORE_BACKEND" envDefault:"firestore"`
		TaskSecret     string        `env:"TASK_SECRET"`
		DebugPprof     bool          `env:"DEBUG_PPROF" envDefault:"false"`
		IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
		ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`

		Auth  AuthProperties  `envPrefix:"AUTH_"`
		Blob  BlobProperties  `envPrefix:"BLOB_"`
		GCP   GCPProperties   `envPrefix:"GCP_"`
		NATS  NATSProperties  `envPrefix:"NATS_"`
		Redis RedisProperties `envPrefix:"REDIS_"`
		CORS  CORSProperties  `envPrefix:"CORS_"`
	}

	AuthProperties struct {
		Mode         string `env:"MODE" envDefault:"firebase"`
		JWTSecret    string `env:"JWT_SECRET"`
		JWTIssuer    string `env:"JWT_ISSUER"`
		OIDCIssuer   string `env:"OIDC_ISSUER"`
		OIDCClientID string `env:"OIDC_CLIENT_ID"`
	}

	BlobProperties struct {
		Backend        string `env:"BACKEND" envDefault:"gcs"`
		Bucket         string `env:"BUCKET"`
		MinioEndpoint  string `env:"MINIO_ENDPOINT"`
		MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
		MinioSecretKey string `env:"MINIO_SECRET_KEY"`
		MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"true"`
		// PublicURL is the base of returned media URLs for the minio and memory backends.
		PublicURL string `env:"PUBLIC_URL"`
	}

	GCPProperties struct {
		ProjectID string `env:"PROJECT_ID"`
		LogName   string `env:"LOG_NAME" envDefault:"eldertales-api"`
		// Notifications are queued only when TasksQueue is set.
		TasksLocation string `env:"TASKS_LOCATION" envDefault:"europe-west1"`
		TasksQueue    string `env:"TASKS_QUEUE"`
		ServiceURL    string `env:"SERVICE_URL"`
	}

	NATSProperties struct {
		URL           string        `env:"URL"`
		SubjectPrefix string        `env:"SUBJECT_PREFIX" envDefault:"eldertales."`
		ClientName    string        `env:"CLIENT_NAME" envDefault:"eldertales-api"`
		MaxReconnects int           `env:"MAX_RECONNECTS" envDefault:"10"`
		ReconnectWait time.Duration `env:"RECONNECT_WAIT" envDefault:"2s"`
	}

	RedisProperties struct {
		Addr      string `env:"ADDR"`
		Password  string `env:"PASSWORD"`
		DB        int    `env:"DB" envDefault:"0"`
		KeyPrefix string `env:"KEY_PREFIX" envDefault:"idempotency:"`
	}

	CORSProperties struct {
		Origins []string `env:"ORIGINS" envSeparator:","`
	}
)

// ReadProperties loads .env when present and parses the process environment.
func ReadProperties() (*Properties, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return parse(env.Options{})
}

// ParseEnvironment parses properties from environment instead of the process environment.
func ParseEnvironment(environment map[string]string) (*Properties, error) {
	if environment == nil {
		environment = map[string]string{}
	}
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Properties, error) {
	config := &Properties{}
	if err := env.Parse(config, opts); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", name, allowed, value)
}

// Validate checks that every selected backend has the settings it needs.
func (p *Properties) Validate() error {
	var errs []error

	errs = append(errs,
		oneOf("STORE_BACKEND", p.StoreBackend, BackendFirestore, BackendMemory),
		oneOf("BLOB_BACKEND", p.Blob.Backend, BackendGCS, BackendMinio, BackendMemory),
		oneOf("AUTH_MODE", p.Auth.Mode, AuthFirebase, AuthJWT, AuthOIDC),
	)

	switch p.Auth.Mode {
	case AuthJWT:
		if p.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("AUTH_JWT_SECRET is required for jwt auth"))
		}
	case AuthOIDC:
		if p.Auth.OIDCIssuer == "" || p.Auth.OIDCClientID == "" {
			errs = append(errs, errors.New("AUTH_OIDC_ISSUER and AUTH_OIDC_CLIENT_ID are required for oidc auth"))
		}
	}

	switch p.Blob.Backend {
	case BackendGCS:
		if p.Blob.Bucket == "" {
			errs = append(errs, errors.New("BLOB_BUCKET is required for gcs"))
		}
	case BackendMinio:
		if p.Blob.MinioEndpoint == "" || p.Blob.Bucket == "" {
			errs = append(errs, errors.New("BLOB_MINIO_ENDPOINT and BLOB_BUCKET are required for minio"))
		}
	}

	if p.NotificationsEnabled() && p.GCP.ServiceURL == "" {
		errs = append(errs, errors.New("GCP_SERVICE_URL is required when GCP_TASKS_QUEUE is set"))
	}
	if p.NotificationsEnabled() && p.TaskSecret == "" {
		errs = append(errs, errors.New("TASK_SECRET is required when GCP_TASKS_QUEUE is set"))
	}
	if p.UsesFirebase() && p.GCP.ProjectID == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID is required for firestore, gcs, firebase auth and notifications"))
	}

	return errors.Join(errs...)
}

// UsesFirebase reports whether any selected backend needs the Firebase Admin app.
func (p *Properties) UsesFirebase() bool {
	return p.StoreBackend == BackendFirestore ||
		p.Blob.Backend == BackendGCS ||
		p.Auth.Mode == AuthFirebase ||
		p.NotificationsEnabled()
}

func (p *Properties) NotificationsEnabled() bool {
	return p.GCP.TasksQueue != ""
}
