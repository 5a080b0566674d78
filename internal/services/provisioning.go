package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teamcalendar/internal/domain"
)

// DefaultResourceTypes are created for every new organization.
var DefaultResourceTypes = []string{"ice_rink", "gym", "locker_room", "meeting_room"}

type provisioningService struct {
	resourceTypes  domain.ResourceTypeRepository
	log            *slog.Logger
	contextTimeout time.Duration
}

func NewProvisioningService(resourceTypes domain.ResourceTypeRepository, log *slog.Logger, timeout time.Duration) domain.Provisioner {
	return &provisioningService{resourceTypes: resourceTypes, log: log, contextTimeout: timeout}
}

// ProvisionOrganization ensures the default resource types exist. Running it twice is harmless.
func (s *provisioningService) ProvisionOrganization(ctx context.Context, orgID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.NewValidationError(checkID("organization_id", orgID)...); err != nil {
		return err
	}
	for _, name := range DefaultResourceTypes {
		if _, err := s.resourceTypes.EnsureByName(ctx, orgID, name); err != nil {
			return fmt.Errorf("ensure resource type %s: %w", name, err)
		}
	}
	s.log.Info("organization provisioned", slog.String("organization_id", orgID))
	return nil
}
