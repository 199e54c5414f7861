package models

// UserID identifies a demo user in the directory.
type UserID string

// String returns the user ID as a string.
func (id UserID) String() string {
	return string(id)
}

// IsNil reports whether the ID is empty.
func (id UserID) IsNil() bool {
	return id == ""
}

// User is a demo directory entry. Only the attributes relevant to a requested
// credential type are ever read; the rest stay empty for most users.
type User struct {
	ID        UserID `json:"id" yaml:"id" validate:"notblank,max=64,excludesall=/?#"`
	FirstName string `json:"firstName" yaml:"firstName" validate:"required"`
	LastName  string `json:"lastName" yaml:"lastName" validate:"required"`

	// Employment
	EmployeeID string `json:"employeeId,omitempty" yaml:"employeeId"`
	Department string `json:"department,omitempty" yaml:"department"`
	JobTitle   string `json:"jobTitle,omitempty" yaml:"jobTitle"`

	// State medical license
	LicenseNumber     string `json:"licenseNumber,omitempty" yaml:"licenseNumber"`
	LicenseType       string `json:"licenseType,omitempty" yaml:"licenseType"`
	LicenseExpiration string `json:"licenseExpiration,omitempty" yaml:"licenseExpiration"`

	// Degree
	DegreeType     string `json:"degreeType,omitempty" yaml:"degreeType"`
	FieldOfStudy   string `json:"fieldOfStudy,omitempty" yaml:"fieldOfStudy"`
	GraduationYear string `json:"graduationYear,omitempty" yaml:"graduationYear"`
	Institution    string `json:"institution,omitempty" yaml:"institution"`

	// Professional membership
	AMAID            string `json:"amaId,omitempty" yaml:"amaId"`
	MembershipStatus string `json:"membershipStatus,omitempty" yaml:"membershipStatus"`
	MembershipLevel  string `json:"membershipLevel,omitempty" yaml:"membershipLevel"`

	// Provider enrollment
	NPINumber        string `json:"npiNumber,omitempty" yaml:"npiNumber"`
	ProviderID       string `json:"providerId,omitempty" yaml:"providerId"`
	PracticeLocation string `json:"practiceLocation,omitempty" yaml:"practiceLocation"`
}

// DisplayName returns "First Last".
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// UserSummary is the listing view of a directory entry.
type UserSummary struct {
	ID        UserID `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Summary projects a user onto its listing view.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}
