package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docsight-backend/internal/documents"
	"docsight-backend/internal/users"
)

// Service handles account-level operations that span the document pipeline
// and the user record.
type Service struct {
	Docs    *documents.Service
	Users   *users.Service
	DocRepo documents.Repo
}

func NewService(docs *documents.Service, usersSvc *users.Service, docRepo documents.Repo) *Service {
	return &Service{Docs: docs, Users: usersSvc, DocRepo: docRepo}
}

// ClaimResult reports how much guest data was migrated to the account.
type ClaimResult struct {
	MigratedDocuments int `json:"migratedDocuments"`
}

type guestClaimer interface {
	ClaimGuest(ctx context.Context, guestOwnerID, ownerID string) (int, error)
}

// ClaimGuest reassigns documents uploaded under a guest identity to the
// authenticated user.
func (s *Service) ClaimGuest(ctx context.Context, guestOwnerID, ownerID string) (ClaimResult, error) {
	if strings.TrimSpace(guestOwnerID) == "" || strings.TrimSpace(ownerID) == "" {
		return ClaimResult{}, errors.New("guest and authenticated owner ids are required")
	}
	claimer, ok := s.DocRepo.(guestClaimer)
	if !ok {
		return ClaimResult{}, errors.New("documents repo does not support claim")
	}
	moved, err := claimer.ClaimGuest(ctx, guestOwnerID, ownerID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedDocuments: moved}, nil
}

// DeleteAccount removes every document the user owns, including the bytes in
// both storage tiers and the analysis history, then the user record itself.
func (s *Service) DeleteAccount(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errors.New("owner id is required")
	}
	if err := s.Docs.DeleteAllForOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if s.Users != nil {
		if err := s.Users.Delete(ctx, ownerID); err != nil {
			return fmt.Errorf("delete user record: %w", err)
		}
	}
	return nil
}
