package models

import "github.com/labfoundry/workbench-engine/pkg/store"

// User represents a workbench user identity record, keyed by uid.
type User struct {
	UID                      string   `json:"uid"`
	Rev                      int64    `json:"rev"`
	Username                 string   `json:"username"`
	Email                    string   `json:"email"`
	FirstName                string   `json:"firstName,omitempty"`
	LastName                 string   `json:"lastName,omitempty"`
	NS                       string   `json:"ns,omitempty"`
	IdentityProviderName     string   `json:"identityProviderName,omitempty"`
	AuthenticationProviderID string   `json:"authenticationProviderId,omitempty"`
	UserRole                 string   `json:"userRole"`
	Status                   string   `json:"status"`
	ProjectIDs               []string `json:"projectId"`
	CreatedBy                string   `json:"createdBy,omitempty"`
	UpdatedBy                string   `json:"updatedBy,omitempty"`
}

// HasProject reports whether the user is associated with the project id.
func (u *User) HasProject(projectID string) bool {
	for _, id := range u.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// ToRecord converts the user into its stored record form.
func (u *User) ToRecord() (*store.Record, error) {
	return toRecord(u, "uid")
}

// UserFromRecord decodes a stored record into a User.
func UserFromRecord(rec *store.Record) (*User, error) {
	var u User
	if err := fromRecord(rec, "uid", &u); err != nil {
		return nil, err
	}
	return &u, nil
}
