// Package gemini implements autoeval.Executor on Google Gemini.
package gemini

import "context"

// GenerativeClient abstracts the Gemini API for testing.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error)
}

// Content represents a message in a Gemini conversation.
type Content struct {
	Parts []*Part
}

// Part represents a part of a message.
type Part struct {
	Text string
}

// GenerateContentConfig holds configuration for content generation.
type GenerateContentConfig struct {
	SystemInstruction *Content
	Temperature       *float32
	ResponseMIMEType  string
	ResponseSchema    *Schema
	ThinkingLevel     string // "", "MINIMAL", "LOW", "MEDIUM", "HIGH"
}

// Schema represents the structure for controlled JSON generation.
type Schema struct {
	Type             string             // object, array, string, integer, number, boolean
	Properties       map[string]*Schema // For object types
	Items            *Schema            // For array types
	Enum             []string           // For string enums
	Required         []string           // Required property names
	PropertyOrdering []string           // Order of properties in output
	Description      string             // Field description
}

// GenerateContentResponse holds the response from content generation.
type GenerateContentResponse struct {
	Text string
}

// MockGenerativeClient is a mock implementation of GenerativeClient for testing.
type MockGenerativeClient struct {
	GenerateContentFn func(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error)
}

func (m *MockGenerativeClient) GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	return m.GenerateContentFn(ctx, model, contents, config)
}

// APIError represents an error from the Gemini API with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError with the given status code and message.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// ReportSchema describes the JSON evaluation report so Gemini can produce
// it through controlled generation.
func ReportSchema() *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"evaluation_steps"},
		Properties: map[string]*Schema{
			"evaluation_steps": {
				Type: "array",
				Items: &Schema{
					Type:             "object",
					Required:         []string{"criterion", "weight", "passed", "confidence", "explanation"},
					PropertyOrdering: []string{"criterion", "weight", "passed", "confidence", "explanation"},
					Properties: map[string]*Schema{
						"criterion":   {Type: "string", Description: "The criterion text, copied verbatim"},
						"weight":      {Type: "number", Description: "The criterion weight, copied verbatim"},
						"passed":      {Type: "boolean"},
						"confidence":  {Type: "integer", Description: "Confidence in the verdict, 0-100"},
						"explanation": {Type: "string"},
					},
				},
			},
		},
	}
}
