package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/healthbridge/partner-api/pkg/errors"
)

// pq error code for unique_violation.
const uniqueViolation = "23505"

// Friendly messages keyed by constraint name so a duplicate insert
// surfaces as a field-attributed Conflict in one round trip.
var constraintMessages = map[string]string{
	"users_email_key":                      "email already registered",
	"users_phone_key":                      "phone already registered",
	"hospitals_registration_number_key":    "registration number already registered",
	"hospitals_email_key":                  "hospital email already registered",
	"staff_members_email_key":              "email already registered",
	"staff_members_doctor_license_num_idx": "license number already registered",
}

// requireRow converts a zero-row update into NotFound.
func requireRow(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Unavailable(fmt.Sprintf("%s storage failure", resource), err)
	}
	if rows == 0 {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}

// translateError maps storage-level failures into the application
// error taxonomy. Unique index violations become Conflict, missing
// rows become NotFound, everything else is Unavailable.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		msg, ok := constraintMessages[pqErr.Constraint]
		if !ok {
			msg = fmt.Sprintf("%s already exists", resource)
		}
		return apperrors.Conflict(msg, err)
	}
	return apperrors.Unavailable(fmt.Sprintf("%s storage failure", resource), err)
}
