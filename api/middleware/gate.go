package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/api/responses"
	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
	"github.com/angelmondragon/bizledger-backend/pkg/logger"
)

// BusinessIDParam is the chi URL parameter naming the business in scoped routes.
const BusinessIDParam = "businessId"

// BusinessGate is the decision surface of access.Gate.
type BusinessGate interface {
	Check(ctx context.Context, session *access.Session, businessID uuid.UUID, required enums.MemberRole) (access.Decision, error)
}

// DecisionRecorder receives every gate outcome; *metrics.AccessMetrics satisfies it.
type DecisionRecorder interface {
	Record(outcome, requiredRole string)
}

var apiDenials = map[access.Reason]error{
	access.ReasonLogin:         pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"),
	access.ReasonBusinessSetup: pkgerrors.New(pkgerrors.CodeForbidden, "business membership required"),
	access.ReasonForbidden:     pkgerrors.New(pkgerrors.CodeForbidden, "insufficient business role"),
}

// RequireBusinessRole runs the access gate for API routes and renders denials as
// JSON errors. An empty required role only asks for an active membership.
func RequireBusinessRole(gate BusinessGate, recorder DecisionRecorder, logg *logger.Logger, required enums.MemberRole) func(http.Handler) http.Handler {
	return gateMiddleware(gate, recorder, logg, required, func(w http.ResponseWriter, r *http.Request, d access.Decision) {
		responses.WriteError(r.Context(), logg, w, apiDenials[d.Reason])
	})
}

// RequireBusinessPage runs the access gate for page routes and answers denials
// with a 303 redirect to the decision's path.
func RequireBusinessPage(gate BusinessGate, recorder DecisionRecorder, logg *logger.Logger, required enums.MemberRole) func(http.Handler) http.Handler {
	return gateMiddleware(gate, recorder, logg, required, func(w http.ResponseWriter, r *http.Request, d access.Decision) {
		http.Redirect(w, r, d.RedirectTo(), http.StatusSeeOther)
	})
}

type denyFunc func(w http.ResponseWriter, r *http.Request, d access.Decision)

func gateMiddleware(gate BusinessGate, recorder DecisionRecorder, logg *logger.Logger, required enums.MemberRole, deny denyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if gate == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "access gate unavailable"))
				return
			}

			// an unparseable id cannot match a membership, so it falls through to business setup
			businessID, _ := uuid.Parse(chi.URLParam(r, BusinessIDParam))
			decision, err := gate.Check(ctx, SessionFromContext(ctx), businessID, required)
			if recorder != nil {
				recorder.Record(decision.Outcome(), string(required))
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			if !decision.Authorized() {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"reason":        string(decision.Reason),
						"required_role": string(required),
						"business_id":   chi.URLParam(r, BusinessIDParam),
					}), "access.denied")
				}
				deny(w, r, decision)
				return
			}

			ctx = WithMembership(ctx, decision.Membership)
			if logg != nil {
				ctx = logg.WithBusinessID(ctx, businessID.String())
				ctx = logg.WithActorRole(ctx, string(decision.Membership.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
