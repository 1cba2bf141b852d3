package common

import (
	"github.com/google/uuid"
)

// GenerateID generates a unique identifier for request correlation
func GenerateID() string {
	return uuid.NewString()
}

// RemoveDuplicates removes duplicate strings from a slice, keeping the first occurrence
func RemoveDuplicates(slice []string) []string {
	seen := make(map[string]bool, len(slice))
	result := make([]string, 0, len(slice))

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}
