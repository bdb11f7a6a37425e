package bot

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CheckStaffCode verifies the staff registration secret. The
// configured value may be a bcrypt hash (preferred) or a plaintext
// code kept for compatibility with older deployments.
func CheckStaffCode(configured, input string) bool {
	if configured == "" || input == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(input)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(input)) == 1
}
