package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxRecipientIDLength = 128
	MaxNotificationIDs   = 100
	MaxNotificationIDLen = 64
)

var (
	// Recipient ids are protocol user ids (numeric fids, DIDs, handles)
	recipientIDRegex = regexp.MustCompile(`^[a-zA-Z0-9:._\-]+$`)

	notificationIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

// ValidateRecipientID validates a recipient identifier
func ValidateRecipientID(recipientID string) error {
	if strings.TrimSpace(recipientID) == "" {
		return fmt.Errorf("recipient id is required")
	}

	if len(recipientID) > MaxRecipientIDLength {
		return fmt.Errorf("recipient id is too long (max %d characters)", MaxRecipientIDLength)
	}

	if !recipientIDRegex.MatchString(recipientID) {
		return fmt.Errorf("recipient id contains invalid characters")
	}

	return nil
}

// ValidateNotificationIDs validates a batch of notification ids for mark-read
func ValidateNotificationIDs(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one notification id is required")
	}

	if len(ids) > MaxNotificationIDs {
		return fmt.Errorf("too many notification ids (max %d)", MaxNotificationIDs)
	}

	for _, id := range ids {
		if id == "" || len(id) > MaxNotificationIDLen || !notificationIDRegex.MatchString(id) {
			return fmt.Errorf("invalid notification id %q", id)
		}
	}

	return nil
}
