// Package translator provides the translation providers and the fallback
// chain the transform runs cells through. Providers share one narrow
// interface; the rest of the pipeline never knows which backend produced
// a string.
package translator

import (
	"context"
	"time"
)

// ServiceConfig carries provider credentials and tuning, loaded from the
// config surface and passed through unchanged on every call.
type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
}

// Request is one text fragment to translate.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Service is a single translation backend.
type Service interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req Request) (string, error)
	IsAvailable(ctx context.Context) error
}
