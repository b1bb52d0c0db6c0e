package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// constraintRules names the schema constraints the services translate into CONFLICT or
// VALIDATION_ERROR, so a logged dump says which rule a write broke.
var constraintRules = map[string]string{
	"ux_users_email":                        "user email already registered",
	"ux_business_memberships_business_user": "user already belongs to business",
	"ux_invoices_business_number":           "invoice number already used in business",
	"chk_businesses_name":                   "business name must not be blank",
}

// ErrorDump is the diagnostic shape logged next to a failed request.
type ErrorDump struct {
	Message string `json:"message"`
	Code    Code   `json:"code,omitempty"`

	Causes []string `json:"causes,omitempty"`

	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	DBMessage  string `json:"db_message,omitempty"`
}

// Dump flattens err for logging. Postgres errors from either driver fill the SQL fields.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Causes = append(d.Causes, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
		d.DBMessage = pqErr.Message
	}
	d.Rule = constraintRules[d.Constraint]
	return d
}
