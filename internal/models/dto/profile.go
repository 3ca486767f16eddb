package dto

import (
	"encoding/json"

	"github.com/mindmatters/mindmatters-api/internal/models"
)

// UpdateProfileRequest accepts age as either a JSON number or a digit string.
type UpdateProfileRequest struct {
	Name          string          `json:"name"`
	Age           json.RawMessage `json:"age"`
	Locality      *string         `json:"locality"`
	PersonalNotes *string         `json:"personalNotes"`
	Goals         *string         `json:"goals"`
}

type ProfileResponse struct {
	User    UserResponse   `json:"user"`
	Profile models.Profile `json:"profile"`
}

type EntriesResponse struct {
	Entries []models.SignInEntry `json:"entries"`
}

type ProfilesResponse struct {
	Profiles []models.ProfileEntry `json:"profiles"`
}
