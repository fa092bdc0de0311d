package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorKind classifies domain errors for transport mapping.
type ErrorKind string

const (
	KindValidation ErrorKind = "VALIDATION_ERROR"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindForbidden  ErrorKind = "FORBIDDEN"
	KindConflict   ErrorKind = "CONFLICT"
	KindUpstream   ErrorKind = "UPSTREAM_FAILURE"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON                = "INVALID_JSON"
	ErrCodeInvalidInput               = "INVALID_INPUT"
	ErrCodeMissingField               = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidLocation            = "INVALID_LOCATION"
	ErrCodeInvalidAction              = "INVALID_ACTION"
	ErrCodeInvalidQuantity            = "INVALID_QUANTITY"
	ErrCodeInsufficientQuantity       = "INSUFFICIENT_QUANTITY"
	ErrCodeInvalidDate                = "INVALID_DATE"
	ErrCodeInvalidRole                = "INVALID_ROLE"
	ErrCodeInvalidFoodItemReference   = "INVALID_FOOD_ITEM_REFERENCE"
	ErrCodeInvalidEmail               = "INVALID_EMAIL"
	ErrCodeNotFound                   = "NOT_FOUND"
	ErrCodeItemNotFound               = "ITEM_NOT_FOUND"
	ErrCodeNoHousehold                = "NO_HOUSEHOLD"
	ErrCodeForbidden                  = "FORBIDDEN"
	ErrCodeAlreadyMember              = "ALREADY_MEMBER"
	ErrCodeDuplicatePendingInvitation = "DUPLICATE_PENDING_INVITATION"
	ErrCodeInvalidOrExpired           = "INVALID_OR_EXPIRED_INVITATION"
	ErrCodeOwnerCannotLeave           = "OWNER_CANNOT_LEAVE"
	ErrCodeCannotRemoveOwner          = "CANNOT_REMOVE_OWNER"
	ErrCodeEmailTaken                 = "EMAIL_TAKEN"
	ErrCodeConcurrentModification     = "CONCURRENT_MODIFICATION"
	ErrCodeUpstreamFailure            = "UPSTREAM_FAILURE"
	ErrCodeProductNotFound            = "PRODUCT_NOT_FOUND"
	ErrCodeUnauthorised               = "UNAUTHORIZED"
	ErrCodeInternalError              = "INTERNAL_ERROR"
)

// DomainError is a business error carrying a kind for transport mapping and a
// code the client can act on.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Validation returns a validation error with a custom message.
func Validation(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// AsDomainError extracts a domain error from the chain, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrInvalidLocation          = NewDomainError(KindValidation, ErrCodeInvalidLocation, "Location must be one of meal, shopping-list, pantry")
	ErrInvalidAction            = NewDomainError(KindValidation, ErrCodeInvalidAction, "Action must be one of add, subtract, set")
	ErrInvalidQuantity          = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be a finite number")
	ErrInvalidTransferAmount    = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Transfer amount must be greater than zero")
	ErrSameLocation             = NewDomainError(KindValidation, ErrCodeInvalidLocation, "Source and destination locations must differ")
	ErrInsufficientQuantity     = NewDomainError(KindConflict, ErrCodeInsufficientQuantity, "Not enough quantity at the source location")
	ErrNameRequired             = NewDomainError(KindValidation, ErrCodeMissingField, "Name is required")
	ErrMissingRequiredField     = NewDomainError(KindValidation, ErrCodeMissingField, "Name and recipe are required")
	ErrInvalidDate              = NewDomainError(KindValidation, ErrCodeInvalidDate, "Date could not be parsed")
	ErrInvalidRole              = NewDomainError(KindValidation, ErrCodeInvalidRole, "Roles must be a non-empty list of breakfast, lunch, snack, dinner, supper, dessert, other")
	ErrInvalidMemberRole        = NewDomainError(KindValidation, ErrCodeInvalidRole, "Role must be admin or member")
	ErrInvalidFoodItemReference = NewDomainError(KindValidation, ErrCodeInvalidFoodItemReference, "One or more food items are invalid")
	ErrInvalidEmail             = NewDomainError(KindValidation, ErrCodeInvalidEmail, "A valid email address is required")
	ErrFoodItemNotFound         = NewDomainError(KindNotFound, ErrCodeNotFound, "Food item not found")
	ErrMealNotFound             = NewDomainError(KindNotFound, ErrCodeNotFound, "Meal not found")
	ErrShoppingListNotFound     = NewDomainError(KindNotFound, ErrCodeNotFound, "Shopping list not found")
	ErrItemNotFound             = NewDomainError(KindNotFound, ErrCodeItemNotFound, "Item not found")
	ErrPantryNotFound           = NewDomainError(KindNotFound, ErrCodeNotFound, "Pantry not found")
	ErrUserNotFound             = NewDomainError(KindNotFound, ErrCodeNotFound, "User not found")
	ErrHouseholdNotFound        = NewDomainError(KindNotFound, ErrCodeNoHousehold, "Household not found")
	ErrMemberNotFound           = NewDomainError(KindNotFound, ErrCodeNotFound, "Member not found")
	ErrProductNotFound          = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrForbidden                = NewDomainError(KindForbidden, ErrCodeForbidden, "You do not have permission to perform this action")
	ErrAlreadyMember            = NewDomainError(KindConflict, ErrCodeAlreadyMember, "User already belongs to a household")
	ErrDuplicateInvitation      = NewDomainError(KindConflict, ErrCodeDuplicatePendingInvitation, "A pending invitation already exists for this email")
	ErrInvalidOrExpired         = NewDomainError(KindValidation, ErrCodeInvalidOrExpired, "Invitation is invalid or has expired")
	ErrInvitationNotFound       = NewDomainError(KindNotFound, ErrCodeInvalidOrExpired, "Invitation is invalid or has expired")
	ErrOwnerCannotLeave         = NewDomainError(KindConflict, ErrCodeOwnerCannotLeave, "The owner cannot leave the household; transfer ownership or delete the household")
	ErrCannotRemoveOwner        = NewDomainError(KindConflict, ErrCodeCannotRemoveOwner, "The owner cannot be removed or demoted")
	ErrEmailTaken               = NewDomainError(KindConflict, ErrCodeEmailTaken, "Email is already registered")
	ErrConcurrentModification   = NewDomainError(KindConflict, ErrCodeConcurrentModification, "Record was modified concurrently, retry the request")
	ErrUpstreamFailure          = NewDomainError(KindUpstream, ErrCodeUpstreamFailure, "An external service failed")
)
