package memberships

import (
	"time"

	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

type membershipWithBusinessRow struct {
	models.BusinessMembership
	BusinessName     string         `gorm:"column:business_name"`
	BusinessCurrency enums.Currency `gorm:"column:business_currency"`
}

func membershipWithBusinessFromRow(row membershipWithBusinessRow) MembershipWithBusiness {
	return MembershipWithBusiness{
		MembershipID: row.ID,
		BusinessID:   row.BusinessID,
		UserID:       row.UserID,
		BusinessName: row.BusinessName,
		Currency:     row.BusinessCurrency,
		Role:         row.Role,
		CreatedAt:    row.CreatedAt,
	}
}

func membershipRowsToDTO(rows []membershipWithBusinessRow) []MembershipWithBusiness {
	out := make([]MembershipWithBusiness, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipWithBusinessFromRow(row))
	}
	return out
}

type memberRow struct {
	models.BusinessMembership
	Email       string     `gorm:"column:email"`
	FirstName   string     `gorm:"column:first_name"`
	LastName    string     `gorm:"column:last_name"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func membersFromRows(rows []memberRow) []MemberDTO {
	out := make([]MemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MemberDTO{
			MembershipID: row.ID,
			BusinessID:   row.BusinessID,
			UserID:       row.UserID,
			Email:        row.Email,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Role:         row.Role,
			Permissions:  copyPermissions(row.Permissions),
			IsActive:     row.IsActive,
			CreatedAt:    row.CreatedAt,
			LastLoginAt:  row.LastLoginAt,
		})
	}
	return out
}

func toAccessMembership(m models.BusinessMembership) access.Membership {
	return access.Membership{
		UserID:      m.UserID,
		BusinessID:  m.BusinessID,
		Role:        m.Role,
		Permissions: copyPermissions(m.Permissions),
		IsActive:    m.IsActive,
	}
}
