package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/cuongbtq/company-intel/internal/storage"
)

// DecodeCompanyCursor parses an opaque cursor. An empty string means no cursor.
func DecodeCompanyCursor(cursorStr string) (*storage.CompanyCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	id, err := strconv.ParseInt(string(decoded), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	return &storage.CompanyCursor{ID: id}, nil
}

func EncodeCompanyCursor(cursor *storage.CompanyCursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(cursor.ID, 10)))
}
