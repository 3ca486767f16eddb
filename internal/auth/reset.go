package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"time"
)

const (
	// ResetTokenTTL is how long a reset link stays usable.
	ResetTokenTTL = 30 * time.Minute

	resetTokenBytes   = 32
	resetEmailSubject = "Reset your MindMatters password"
)

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func resetLink(appURL, token string) string {
	return strings.TrimRight(appURL, "/") + "/reset-password?token=" + token
}

func resetEmailBody(link string) string {
	escaped := html.EscapeString(link)
	return fmt.Sprintf(
		`<p>Click the link to reset your password:</p><p><a href="%s">%s</a></p><p>This link expires in %d minutes.</p>`,
		escaped, escaped, int(ResetTokenTTL.Minutes()),
	)
}
