package controllers

import (
	"net/http"

	"github.com/angelmondragon/bizledger-backend/api/middleware"
	"github.com/angelmondragon/bizledger-backend/api/responses"
	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/internal/businesses"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/logger"
)

type pageMember struct {
	Role        enums.MemberRole `json:"role"`
	Permissions []string         `json:"permissions"`
}

type businessPage struct {
	Page       string                  `json:"page"`
	Business   *businesses.BusinessDTO `json:"business"`
	Membership pageMember              `json:"membership"`
}

type settingsPage struct {
	businessPage
	Members any `json:"members"`
}

// BusinessPage is the dashboard summary shown to any active member.
func BusinessPage(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("business"))
			return
		}
		m, err := gatedMembership(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		business, err := svc.Get(r.Context(), m.BusinessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBusinessPage("business", business, m))
	}
}

// BusinessSettingsPage adds the member roster to the summary.
func BusinessSettingsPage(svc businesses.Service, members MembersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || members == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("business"))
			return
		}
		m, err := gatedMembership(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		business, err := svc.Get(r.Context(), m.BusinessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roster, err := members.ListMembers(r.Context(), m.BusinessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingsPage{
			businessPage: newBusinessPage("settings", business, m),
			Members:      roster,
		})
	}
}

// Placeholder answers the redirect targets of the access gate until a UI serves them.
func Placeholder(page, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"page": page, "message": message}
		if sess := middleware.SessionFromContext(r.Context()); sess != nil {
			body["user_id"] = sess.UserID
		}
		responses.WriteSuccess(w, body)
	}
}

func newBusinessPage(page string, business *businesses.BusinessDTO, m access.Membership) businessPage {
	perms := m.Permissions
	if perms == nil {
		perms = []string{}
	}
	return businessPage{
		Page:       page,
		Business:   business,
		Membership: pageMember{Role: m.Role, Permissions: perms},
	}
}
