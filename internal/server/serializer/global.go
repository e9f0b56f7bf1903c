package serializer

// Errors serializes the given message to the error response format.
func Errors(message any) map[string]any {
	return map[string]any{
		"errors": message,
	}
}
