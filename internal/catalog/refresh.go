package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/config"
)

// RefreshClient triggers the external catalog refresh provider. The
// provider scrapes fresh product listings for an ingredient and delivers
// them later through the inbound catalog callback endpoint; the trigger
// itself only returns a job identifier.
type RefreshClient struct {
	client *resty.Client
	log    *zap.Logger
}

// NewRefreshClient builds a client for the configured refresh provider.
func NewRefreshClient(cfg config.CatalogConfig) *RefreshClient {
	timeout := time.Duration(cfg.RefreshTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.RefreshURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &RefreshClient{
		client: client,
		log:    zap.L().With(zap.String("component", "catalog.refresh")),
	}
}

type refreshRequest struct {
	JobID      string `json:"job_id"`
	Ingredient string `json:"ingredient"`
}

type refreshResponse struct {
	JobID string `json:"job_id"`
}

// Trigger asks the provider to refresh catalog data for an ingredient
// and returns the accepted job id. Callers treat this as fire-and-forget;
// the result arrives via the callback endpoint or not at all.
func (r *RefreshClient) Trigger(ctx context.Context, ingredient string) (string, error) {
	if r.client.BaseURL == "" {
		return "", eris.New("catalog: refresh provider not configured")
	}

	jobID := uuid.New().String()

	var out refreshResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(refreshRequest{JobID: jobID, Ingredient: ingredient}).
		SetResult(&out).
		Post("/refresh")
	if err != nil {
		return "", eris.Wrapf(err, "catalog: trigger refresh for %q", ingredient)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return "", eris.Errorf("catalog: refresh provider returned %d", resp.StatusCode())
	}

	if out.JobID != "" {
		jobID = out.JobID
	}
	r.log.Info("catalog refresh triggered",
		zap.String("ingredient", ingredient),
		zap.String("job_id", jobID),
	)
	return jobID, nil
}
