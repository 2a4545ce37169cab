package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UserID identifies a player on the rating service.
// The service is inconsistent about the JSON type (/auth/self returns it as a
// string), so decoding accepts both a number and a quoted decimal.
type UserID int64

// UnmarshalJSON accepts 5 and "5"
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", string(data), err)
	}
	*id = UserID(n)
	return nil
}

// String returns the decimal form used in URL paths
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses a decimal user id from command input
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return UserID(n), nil
}
