// Package claims maps a directory user onto the claims of a credential type.
package claims

import (
	directory "medcred/internal/directory/models"
	"medcred/internal/issuance/models"
)

type extractor func(u directory.User) models.Claims

var extractors = map[models.CredentialType]extractor{
	models.UnitedHealthEmployeeCredential: func(u directory.User) models.Claims {
		return models.Claims{
			"firstName":  u.FirstName,
			"lastName":   u.LastName,
			"employeeId": u.EmployeeID,
			"department": u.Department,
			"jobTitle":   u.JobTitle,
		}
	},
	models.FloridaMedicalLicenseCredential: func(u directory.User) models.Claims {
		return models.Claims{
			"firstName":         u.FirstName,
			"lastName":          u.LastName,
			"licenseNumber":     u.LicenseNumber,
			"licenseType":       u.LicenseType,
			"licenseExpiration": u.LicenseExpiration,
		}
	},
	models.MedicalDoctorCredential: func(u directory.User) models.Claims {
		return models.Claims{
			"firstName":      u.FirstName,
			"lastName":       u.LastName,
			"degreeType":     u.DegreeType,
			"fieldOfStudy":   u.FieldOfStudy,
			"graduationYear": u.GraduationYear,
			"institution":    u.Institution,
		}
	},
	models.AMACredential: func(u directory.User) models.Claims {
		return models.Claims{
			"firstName":        u.FirstName,
			"lastName":         u.LastName,
			"membershipId":     u.AMAID,
			"membershipStatus": u.MembershipStatus,
			"membershipLevel":  u.MembershipLevel,
		}
	},
	models.CMSProviderCredential: func(u directory.User) models.Claims {
		return models.Claims{
			"firstName":        u.FirstName,
			"lastName":         u.LastName,
			"providerNpi":      u.NPINumber,
			"providerId":       u.ProviderID,
			"practiceLocation": u.PracticeLocation,
		}
	},
}

// Build returns the claims for credential type t. Types without a mapping
// get an empty, non-nil map.
func Build(t models.CredentialType, u directory.User) models.Claims {
	if fn, ok := extractors[t]; ok {
		return fn(u)
	}
	return models.Claims{}
}

// Supported reports whether t has a claims mapping.
func Supported(t models.CredentialType) bool {
	_, ok := extractors[t]
	return ok
}
