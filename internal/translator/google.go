package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through the Google Cloud Translation API.
// Credentials are passed as a client option, never through process-wide
// environment state.
type GoogleService struct {
	credentials string
	projectID   string
}

func NewGoogleService(credentials, projectID string) *GoogleService {
	return &GoogleService{credentials: credentials, projectID: projectID}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req Request) (string, error) {
	credentials := s.credentials
	if cfg.Credentials != "" {
		credentials = cfg.Credentials
	}

	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)
	}

	var opts []option.ClientOption
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create translate client: %w", err)
	}
	defer client.Close()

	var tropts *translate.Options
	if req.SourceLang != "" && req.SourceLang != "auto" {
		src, err := language.Parse(req.SourceLang)
		if err != nil {
			return "", fmt.Errorf("invalid source language %q: %w", req.SourceLang, err)
		}
		tropts = &translate.Options{Source: src}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, target, tropts)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return translations[0].Text, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}
