package testutil

import (
	directory "medcred/internal/directory/models"
)

// AnnLee is the employee used throughout issuance tests.
func AnnLee() directory.User {
	return NewUser("u1", "Ann", "Lee").
		Employee("E1", "Cardio", "MD").
		Build()
}

// UserBuilder provides a fluent interface for building directory users.
type UserBuilder struct {
	user directory.User
}

// NewUser starts a user with the required fields set.
func NewUser(id, first, last string) *UserBuilder {
	return &UserBuilder{user: directory.User{
		ID:        directory.UserID(id),
		FirstName: first,
		LastName:  last,
	}}
}

func (b *UserBuilder) Employee(employeeID, department, jobTitle string) *UserBuilder {
	b.user.EmployeeID = employeeID
	b.user.Department = department
	b.user.JobTitle = jobTitle
	return b
}

func (b *UserBuilder) License(number, licenseType, expiration string) *UserBuilder {
	b.user.LicenseNumber = number
	b.user.LicenseType = licenseType
	b.user.LicenseExpiration = expiration
	return b
}

func (b *UserBuilder) Degree(degreeType, field, year, institution string) *UserBuilder {
	b.user.DegreeType = degreeType
	b.user.FieldOfStudy = field
	b.user.GraduationYear = year
	b.user.Institution = institution
	return b
}

func (b *UserBuilder) Membership(amaID, status, level string) *UserBuilder {
	b.user.AMAID = amaID
	b.user.MembershipStatus = status
	b.user.MembershipLevel = level
	return b
}

func (b *UserBuilder) Provider(npi, providerID, location string) *UserBuilder {
	b.user.NPINumber = npi
	b.user.ProviderID = providerID
	b.user.PracticeLocation = location
	return b
}

func (b *UserBuilder) Build() directory.User {
	return b.user
}
