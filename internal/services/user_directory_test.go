package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage/memory"
)

func TestUserDirectoryResolvesBothKinds(t *testing.T) {
	ctx := context.Background()

	freelances := memory.NewProfileStore()
	freelances.Put(models.UserSummary{ID: freelanceID, Kind: models.UserKindFreelance, FirstName: "Awa"})
	companies := memory.NewProfileStore()
	companies.Put(models.UserSummary{ID: companyID, Kind: models.UserKindCompany, CompanyName: "Acme Studio"})

	directory := services.NewUserDirectory(freelances, companies)

	freelance, err := directory.Resolve(ctx, freelanceID)
	if err != nil {
		t.Fatalf("Resolve(freelance) failed: %v", err)
	}
	if freelance.Kind != models.UserKindFreelance || freelance.FirstName != "Awa" {
		t.Fatalf("unexpected freelance summary %+v", freelance)
	}

	company, err := directory.Resolve(ctx, companyID)
	if err != nil {
		t.Fatalf("Resolve(company) failed: %v", err)
	}
	if company.Kind != models.UserKindCompany || company.CompanyName != "Acme Studio" {
		t.Fatalf("unexpected company summary %+v", company)
	}

	_, err = directory.Resolve(ctx, "99999999-9999-9999-9999-999999999999")
	if !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
