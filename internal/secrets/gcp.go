package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

// GCPSource reads the latest version of a secret from Google Secret Manager.
type GCPSource struct {
	projectID string
	service   *secretmanager.Service
}

// NewGCPSource creates a Secret Manager client for projectID. Credentials are
// resolved through Application Default Credentials unless opts override them.
func NewGCPSource(ctx context.Context, projectID string, opts ...option.ClientOption) (*GCPSource, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("secret manager: project id is required")
	}
	service, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secret manager: %w", err)
	}
	return &GCPSource{projectID: projectID, service: service}, nil
}

func (s *GCPSource) FetchSecret(ctx context.Context, name string) (string, error) {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)
	resp, err := s.service.Projects.Secrets.Versions.Access(resource).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return "", fmt.Errorf("secret manager %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("secret manager %s: %w", name, err)
	}
	if resp.Payload == nil {
		return "", fmt.Errorf("secret manager %s: %w", name, ErrNotFound)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("secret manager %s: decode payload: %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret manager %s: %w", name, ErrNotFound)
	}
	return value, nil
}
