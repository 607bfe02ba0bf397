package storeerr

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deppfellow/product-inventory/internal/errs"
	"github.com/deppfellow/product-inventory/internal/repository"
)

// HandleError converts a store error into an *errs.HTTPError.
//
// Output:
//   - *errs.HTTPError: returned unchanged
//   - repository.ErrNotFound, pgx.ErrNoRows, redis.Nil: 404
//   - PostgreSQL integrity or data errors: 400 with a readable message
//   - PostgreSQL resource errors, DynamoDB throttling: 503
//   - DynamoDB ValidationException: 400
//   - anything else: 500
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, redis.Nil):
		return errs.NewNotFoundError("Resource not found", nil)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return handlePgError(pgErr)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return handleAPIError(apiErr)
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		if strings.HasPrefix(redisErr.Error(), "LOADING") || strings.HasPrefix(redisErr.Error(), "BUSY") {
			return errs.NewServiceUnavailableError()
		}
		return errs.NewInternalServerError()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errs.NewServiceUnavailableError()
	}

	return errs.NewInternalServerError()
}

func handlePgError(pgErr *pgconn.PgError) error {
	code := MapCode(pgErr.Code)
	errorCode := generateErrorCode(pgErr.TableName, code)

	switch code {
	case NotNullViolation:
		field := strings.ToLower(pgErr.ColumnName)
		return errs.NewBadRequestError(formatUserFriendlyMessage(pgErr, code), &errorCode, []errs.FieldError{
			{Field: field, Error: "is required"},
		})

	case CheckViolation, UniqueViolation, ForeignKeyViolation,
		InvalidTextRepresentation, NumericValueOutOfRange, UntranslatableCharacter:
		return errs.NewBadRequestError(formatUserFriendlyMessage(pgErr, code), &errorCode, nil)

	case InsufficientResources, TooManyConnections, CannotConnectNow:
		return errs.NewServiceUnavailableError()

	default:
		return errs.NewInternalServerError()
	}
}

func handleAPIError(apiErr smithy.APIError) error {
	switch {
	case dynamoCapacityCodes[apiErr.ErrorCode()]:
		return errs.NewServiceUnavailableError()

	case apiErr.ErrorCode() == "ValidationException":
		code := "PRODUCT_INVALID"
		return errs.NewBadRequestError("The product was rejected by the store", &code, nil)

	case apiErr.ErrorCode() == "ResourceNotFoundException":
		// Missing table, an operator problem rather than a missing item.
		return errs.NewInternalServerError()

	case apiErr.ErrorFault() == smithy.FaultServer:
		return errs.NewServiceUnavailableError()

	default:
		return errs.NewInternalServerError()
	}
}

// generateErrorCode builds codes like PRODUCT_INVALID from the table name
// and the error category.
func generateErrorCode(tableName string, code Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch code {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidTextRepresentation, NumericValueOutOfRange, UntranslatableCharacter:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(pgErr *pgconn.PgError, code Code) string {
	entity := getEntityName(pgErr.TableName)

	switch code {
	case NotNullViolation:
		field := humanizeText(pgErr.ColumnName)
		if field == "" {
			field = "field"
		}
		return fmt.Sprintf("The %s is required", field)

	case CheckViolation:
		if field := humanizeText(pgErr.ColumnName); field != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", field)
		}
		if pgErr.ConstraintName != "" {
			return fmt.Sprintf("The %s does not satisfy %s", entity, humanizeText(pgErr.ConstraintName))
		}
		return "One or more values do not meet required conditions"

	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entity)

	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entity)

	case InvalidTextRepresentation, NumericValueOutOfRange, UntranslatableCharacter:
		return fmt.Sprintf("The %s contains a value the store cannot represent", entity)

	default:
		return "An error occurred while processing your request"
	}
}

func getEntityName(tableName string) string {
	if tableName == "" {
		return "product"
	}
	entity := tableName
	if strings.HasSuffix(entity, "s") && len(entity) > 1 {
		entity = entity[:len(entity)-1]
	}
	return strings.ToLower(entity)
}

// humanizeText turns "products_attributes_object" into
// "Products Attributes Object".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}
