package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"medibook/models"
	"medibook/services/upstream"
	"medibook/utils"
)

// Filter narrows the doctor catalog. Search matches name or specialization by
// case-insensitive substring; Specialization, when non-empty, must match
// exactly. Both predicates are AND'ed.
type Filter struct {
	Search         string `json:"search"`
	Specialization string `json:"specialization"`
}

// CatalogService loads and filters the doctor directory.
type CatalogService interface {
	List(ctx context.Context, filter Filter) ([]models.Doctor, error)
}

// DefaultCatalogService implements CatalogService against the upstream API.
type DefaultCatalogService struct {
	Upstream upstream.Client
}

func (s *DefaultCatalogService) List(ctx context.Context, filter Filter) ([]models.Doctor, error) {
	logger := utils.GetLogger()

	doctors, err := s.Upstream.FetchDoctors(ctx)
	if err != nil {
		logger.Error("catalog: failed to fetch doctors", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch doctors: %w", err)
	}

	return ApplyFilter(doctors, filter), nil
}

// ApplyFilter is the pure filtering step, exposed separately so the wizard can
// re-filter an already-loaded catalog snapshot.
func ApplyFilter(doctors []models.Doctor, filter Filter) []models.Doctor {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if search != "" {
			name := strings.ToLower(d.Name)
			spec := strings.ToLower(d.Specialization)
			if !strings.Contains(name, search) && !strings.Contains(spec, search) {
				continue
			}
		}
		if filter.Specialization != "" && d.Specialization != filter.Specialization {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Specializations returns the distinct specializations in first-seen order,
// for the catalog filter dropdown.
func Specializations(doctors []models.Doctor) []string {
	seen := make(map[string]bool, len(doctors))
	var out []string
	for _, d := range doctors {
		if d.Specialization == "" || seen[d.Specialization] {
			continue
		}
		seen[d.Specialization] = true
		out = append(out, d.Specialization)
	}
	return out
}
