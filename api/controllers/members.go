package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/api/responses"
	"github.com/angelmondragon/bizledger-backend/api/validators"
	"github.com/angelmondragon/bizledger-backend/internal/memberships"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/logger"
)

// MembersService is the roster surface of *memberships.Service.
type MembersService interface {
	ListMembers(ctx context.Context, businessID uuid.UUID) ([]memberships.MemberDTO, error)
	AddMember(ctx context.Context, businessID uuid.UUID, actor memberships.Actor, input memberships.AddMemberInput) (*memberships.MembershipDTO, error)
	UpdateMember(ctx context.Context, businessID, userID uuid.UUID, actor memberships.Actor, input memberships.UpdateMemberInput) (*memberships.MembershipDTO, error)
	RemoveMember(ctx context.Context, businessID, userID uuid.UUID, actor memberships.Actor) error
}

type addMemberRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Role        string   `json:"role" validate:"required,member_role"`
	Permissions []string `json:"permissions,omitempty" validate:"omitempty,max=50,dive,required,max=64"`
}

type updateMemberRequest struct {
	Role        *string   `json:"role,omitempty" validate:"omitempty,member_role"`
	IsActive    *bool     `json:"is_active,omitempty"`
	Permissions *[]string `json:"permissions,omitempty" validate:"omitempty,max=50,dive,required,max=64"`
}

func ListMembers(svc MembersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("membership"))
			return
		}
		m, err := gatedMembership(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		members, err := svc.ListMembers(r.Context(), m.BusinessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

// AddMember adds an existing user, by email, to the business.
func AddMember(svc MembersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("membership"))
			return
		}
		m, err := gatedMembership(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AddMember(r.Context(), m.BusinessID, actorOf(m.UserID, m.Role), memberships.AddMemberInput{
			Email:       body.Email,
			Role:        enums.MemberRole(body.Role),
			Permissions: body.Permissions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func UpdateMember(svc MembersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("membership"))
			return
		}
		m, err := gatedMembership(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId", "member")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := memberships.UpdateMemberInput{IsActive: body.IsActive, Permissions: body.Permissions}
		if body.Role != nil {
			role := enums.MemberRole(*body.Role)
			input.Role = &role
		}
		dto, err := svc.UpdateMember(r.Context(), m.BusinessID, userID, actorOf(m.UserID, m.Role), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func RemoveMember(svc MembersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("membership"))
			return
		}
		m, err := gatedMembership(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId", "member")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveMember(r.Context(), m.BusinessID, userID, actorOf(m.UserID, m.Role)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func actorOf(userID uuid.UUID, role enums.MemberRole) memberships.Actor {
	return memberships.Actor{UserID: userID, Role: role}
}
