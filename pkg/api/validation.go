package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// Validation patterns
var (
	handleRegex = regexp.MustCompile(`^@?[a-zA-Z0-9_.-]{1,50}$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Validator provides validation methods
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetErrors returns all validation errors
func (v *Validator) GetErrors() ValidationErrors {
	return v.errors
}

// ValidateWalletAddress validates a wallet address. The address is an opaque
// identifier; it is not checked against any chain format.
func (v *Validator) ValidateWalletAddress(field, address string) {
	if address == "" {
		v.AddError(field, "wallet address is required")
		return
	}

	if len(address) > 128 {
		v.AddError(field, "wallet address is too long")
	}
}

// ValidateHandle validates an optional social media handle
func (v *Validator) ValidateHandle(field, handle string) {
	if handle == "" {
		return
	}

	if !handleRegex.MatchString(handle) {
		v.AddError(field, "invalid handle format")
	}
}

// ValidateChatMessage validates a chat message
func (v *Validator) ValidateChatMessage(field, message string) {
	if strings.TrimSpace(message) == "" {
		v.AddError(field, "message is required")
		return
	}

	if len(message) > 2000 {
		v.AddError(field, "message must be at most 2000 characters")
	}
}

// SendValidationErrors sends validation errors as JSON response
func SendValidationErrors(c *gin.Context, errors ValidationErrors) {
	c.JSON(400, gin.H{
		"error":   "Validation failed",
		"details": errors,
	})
}

// Request structs

// CreateUserRequest is the registration payload
type CreateUserRequest struct {
	WalletAddress  string `json:"walletAddress"`
	TwitterHandle  string `json:"twitterHandle"`
	TelegramHandle string `json:"telegramHandle"`
	DiscordHandle  string `json:"discordHandle"`
}

// AnalyzeRequest asks for a wallet's risk analysis
type AnalyzeRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// ChatRequest carries a message for the AI passthrough
type ChatRequest struct {
	Message string `json:"message"`
}

// ValidateCreateUserRequest validates registration data
func ValidateCreateUserRequest(req CreateUserRequest) ValidationErrors {
	validator := NewValidator()

	validator.ValidateWalletAddress("walletAddress", req.WalletAddress)
	validator.ValidateHandle("twitterHandle", req.TwitterHandle)
	validator.ValidateHandle("telegramHandle", req.TelegramHandle)
	validator.ValidateHandle("discordHandle", req.DiscordHandle)

	return validator.GetErrors()
}

// ValidateAnalyzeRequest validates an analysis request
func ValidateAnalyzeRequest(req AnalyzeRequest) ValidationErrors {
	validator := NewValidator()
	validator.ValidateWalletAddress("walletAddress", req.WalletAddress)
	return validator.GetErrors()
}

// ValidateChatRequest validates a chat request
func ValidateChatRequest(req ChatRequest) ValidationErrors {
	validator := NewValidator()
	validator.ValidateChatMessage("message", req.Message)
	return validator.GetErrors()
}
