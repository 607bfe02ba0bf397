// Package storeerr translates errors raised by the store drivers into
// application errors.
//
// PostgreSQL SQLSTATE codes, DynamoDB API error codes and go-redis errors
// are classified into client mistakes (400), missing records (404),
// exhausted capacity (503) and everything else (500). Driver messages are
// never passed to the client; the original error is kept for logging.
package storeerr

// Code is the category of a PostgreSQL error.
type Code string

const (
	Other                     Code = "other"
	NotNullViolation          Code = "not_null_violation"
	ForeignKeyViolation       Code = "foreign_key_violation"
	UniqueViolation           Code = "unique_violation"
	CheckViolation            Code = "check_violation"
	InvalidTextRepresentation Code = "invalid_text_representation"
	NumericValueOutOfRange    Code = "numeric_value_out_of_range"
	UntranslatableCharacter   Code = "untranslatable_character"
	InsufficientResources     Code = "insufficient_resources"
	TooManyConnections        Code = "too_many_connections"
	CannotConnectNow          Code = "cannot_connect_now"
)

var pgCodes = map[string]Code{
	"23502": NotNullViolation,
	"23503": ForeignKeyViolation,
	"23505": UniqueViolation,
	"23514": CheckViolation,
	"22P02": InvalidTextRepresentation,
	"22003": NumericValueOutOfRange,
	"22P05": UntranslatableCharacter,
	"53000": InsufficientResources,
	"53300": TooManyConnections,
	"57P03": CannotConnectNow,
}

// MapCode maps a SQLSTATE to its Code, Other when unknown.
func MapCode(sqlstate string) Code {
	if code, ok := pgCodes[sqlstate]; ok {
		return code
	}
	return Other
}

// DynamoDB error codes that mean the request should be retried later.
var dynamoCapacityCodes = map[string]bool{
	"ThrottlingException":                    true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"LimitExceededException":                 true,
}
