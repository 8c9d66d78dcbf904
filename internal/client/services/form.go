package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/formrelay/internal/apierr"
	"github.com/dmitrijs2005/formrelay/internal/client/api"
	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/logging"
)

const formsCacheKey = "forms"

// FormService serves form definitions, preferring live data and falling back
// to the persisted cache when the server cannot be reached.
type FormService interface {
	// List returns form definitions. stale=true means the result came from
	// the cache because live delivery failed with a retriable error.
	List(ctx context.Context) (forms []models.Form, stale bool, err error)
}

type formService struct {
	client api.Client
	cache  CacheService
	logger logging.Logger
}

func NewFormService(client api.Client, cache CacheService, logger logging.Logger) FormService {
	return &formService{client: client, cache: cache, logger: logger}
}

func (s *formService) List(ctx context.Context) ([]models.Form, bool, error) {
	forms, err := s.client.ListForms(ctx)
	if err == nil {
		if raw, merr := json.Marshal(forms); merr == nil {
			if cerr := s.cache.Put(ctx, formsCacheKey, raw); cerr != nil {
				s.logger.Warn(ctx, "failed to cache form list", "error", cerr.Error())
			}
		}
		return forms, false, nil
	}

	if !apierr.Retriable(err) {
		return nil, false, err
	}

	raw, ok := s.cache.Get(formsCacheKey)
	if !ok {
		return nil, false, err
	}

	var cached []models.Form
	if uerr := json.Unmarshal(raw, &cached); uerr != nil {
		return nil, false, fmt.Errorf("failed to decode cached form list: %w", uerr)
	}

	s.logger.Info(ctx, "serving form list from cache", "forms", len(cached))
	return cached, true, nil
}
