package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

func SeedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "unused",
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User %s", email),
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func SeedBusiness(t *testing.T, db *gorm.DB, name string, createdBy uuid.UUID) models.Business {
	t.Helper()
	business := models.Business{
		ID:              uuid.New(),
		Name:            name,
		Currency:        enums.CurrencyUSD,
		CreatedByUserID: createdBy,
	}
	require.NoError(t, db.Create(&business).Error)
	return business
}

func SeedMembership(t *testing.T, db *gorm.DB, businessID, userID uuid.UUID, role enums.MemberRole) models.BusinessMembership {
	t.Helper()
	membership := models.BusinessMembership{
		ID:         uuid.New(),
		BusinessID: businessID,
		UserID:     userID,
		Role:       role,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&membership).Error)
	return membership
}

func SeedContact(t *testing.T, db *gorm.DB, businessID uuid.UUID, kind enums.ContactKind, name string) models.Contact {
	t.Helper()
	contact := models.Contact{
		ID:         uuid.New(),
		BusinessID: businessID,
		Kind:       kind,
		Name:       name,
	}
	require.NoError(t, db.Create(&contact).Error)
	return contact
}
