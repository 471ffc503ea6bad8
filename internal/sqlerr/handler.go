package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/deppfellow/gitminer/internal/errs"
)

var (
	uniqueConstraintPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)
	// "commits_project_id_fkey"
	foreignKeyPattern = regexp.MustCompile(`_([a-z0-9]+_id)_fkey$`)
	// "UNIQUE constraint failed: projects.id"
	sqliteColumnPattern = regexp.MustCompile(`constraint failed: ([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)
)

// ErrCode reports the mapped Code for err, or Other when err carries no
// database error.
func ErrCode(err error) Code {
	if sqlErr := asError(err); sqlErr != nil {
		return sqlErr.Code
	}
	return Other
}

// asError normalizes a converted or raw driver error found in err's chain.
func asError(err error) *Error {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return ConvertPgError(pgerr)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}

	return nil
}

// ConvertPgError converts a raw Postgres error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// ConvertSQLiteError converts a SQLite driver error into an *Error.
//
// SQLite reports the offending table and column only inside the message,
// e.g. "UNIQUE constraint failed: projects.id", so they are parsed from it.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	sqlErr := &Error{
		Code:         MapSQLiteCode(src.Code()),
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(src.Code()),
		Message:      src.Error(),
		driverErr:    src,
	}

	if m := sqliteColumnPattern.FindStringSubmatch(src.Error()); len(m) == 3 {
		sqlErr.TableName = m[1]
		sqlErr.ColumnName = m[2]
	}

	return sqlErr
}

// MapSQLiteCode maps an extended SQLite result code to a Code.
func MapSQLiteCode(code int) Code {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return CheckViolation
	default:
		return Other
	}
}

// generateErrorCode builds a machine-friendly code such as PROJECT_ALREADY_EXISTS.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		if column := referencedColumn(sqlErr); column != "" {
			entityName = getEntityName("", column)
		}
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is swapped for the column name when it can be inferred.
		return fmt.Sprintf("A %s with this identifier already exists", getEntityName(sqlErr.TableName, ""))

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers the "<entity>_id" column, then the singular table name.
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText turns "author_name" into "Author Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// uniqueColumn infers the violated column from the error.
//
// Supported constraint names:
//
//	unique_<table>_<column>
//	<table>_<column>_key, <table>_<column>_ukey
//	<table>_pkey
func uniqueColumn(sqlErr *Error) string {
	if sqlErr.ColumnName != "" {
		return sqlErr.ColumnName
	}

	name := sqlErr.ConstraintName
	if name == "" {
		return ""
	}

	if strings.HasSuffix(name, "_pkey") {
		return "id"
	}

	if strings.HasPrefix(name, "unique_") {
		parts := strings.Split(name, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueConstraintPattern.FindStringSubmatch(name); len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// referencedColumn returns the "<entity>_id" column of a foreign key
// violation, from the error itself or from a <table>_<column>_fkey name.
func referencedColumn(sqlErr *Error) string {
	if strings.HasSuffix(strings.ToLower(sqlErr.ColumnName), "_id") {
		return strings.ToLower(sqlErr.ColumnName)
	}
	if m := foreignKeyPattern.FindStringSubmatch(sqlErr.ConstraintName); len(m) > 1 {
		return m[1]
	}
	return ""
}

// toHTTPError maps a normalized constraint failure onto the client error.
func toHTTPError(sqlErr *Error) error {
	errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
	userMessage := formatUserFriendlyMessage(sqlErr)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		// The code names the missing parent: PROJECT_NOT_FOUND, not COMMIT_NOT_FOUND.
		if column := referencedColumn(sqlErr); column != "" {
			errorCode = generateErrorCode(strings.TrimSuffix(column, "_id"), sqlErr.Code)
		}
		return errs.NewBadRequestError(userMessage, false, &errorCode, nil, nil)

	case UniqueViolation:
		if column := uniqueColumn(sqlErr); column != "" {
			userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(column))
		}
		return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)

	case NotNullViolation:
		fieldErrors := []errs.FieldError{
			{
				Field: strings.ToLower(sqlErr.ColumnName),
				Error: "is required",
			},
		}
		return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors, nil)

	case CheckViolation:
		return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)

	default:
		return errs.NewInternalServerError()
	}
}

// HandleError converts a low-level database error into an *errs.HTTPError.
//
//   - *errs.HTTPError is returned unchanged
//   - constraint violations become 400 Bad Request
//   - ErrNoRows becomes 404; a "table:<name>:" prefix in the message names the entity
//   - anything else becomes 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if sqlErr := asError(err); sqlErr != nil {
		return toHTTPError(sqlErr)
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		errMsg := err.Error()
		tablePrefix := "table:"
		if strings.Contains(errMsg, tablePrefix) {
			table := strings.Split(strings.Split(errMsg, tablePrefix)[1], ":")[0]
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", getEntityName(table, "")), true, nil)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}

// HandleReferenceError is HandleError for writes whose only client-supplied
// foreign key is column. SQLite does not say which key failed, so a foreign
// key violation without one is attributed to column.
func HandleReferenceError(err error, column string) error {
	sqlErr := asError(err)
	if sqlErr == nil || sqlErr.Code != ForeignKeyViolation || referencedColumn(sqlErr) != "" {
		return HandleError(err)
	}

	sqlErr.ColumnName = column
	return toHTTPError(sqlErr)
}
