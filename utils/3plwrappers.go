package utils

import (
	"github.com/google/uuid"
)

func GetUUID() string {
	return uuid.New().String()
}

// ShortID is a short correlation reference, e.g. for payment receipts.
func ShortID() string {
	return "rcpt_" + uuid.New().String()[:8]
}
