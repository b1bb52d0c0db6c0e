package controllers

import (
	"net/http"

	"github.com/angelmondragon/bizledger-backend/api/middleware"
	"github.com/angelmondragon/bizledger-backend/internal/access"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

// gatedMembership returns the membership stored by the access gate. Handlers
// mounted without the gate get an internal error rather than a silent pass.
func gatedMembership(r *http.Request) (access.Membership, error) {
	m, ok := middleware.MembershipFromContext(r.Context())
	if !ok {
		return access.Membership{}, pkgerrors.New(pkgerrors.CodeInternal, "business context missing")
	}
	return m, nil
}

func unavailable(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeInternal, "%s service unavailable", name)
}
