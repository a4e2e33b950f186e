// Package signup contiene los DTOs de los endpoints de alta.
package signup

// StartSignupRequest es el body de POST /v1/signup/start.
type StartSignupRequest struct {
	Email               string `json:"email"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Company             string `json:"company"`
	MembershipCompanyID string `json:"membershipCompanyId"`
	Director            bool   `json:"director"`
}

// StartSignupResponse confirma el envío del OTP. El código viaja solo
// por email, nunca acá.
type StartSignupResponse struct {
	Message    string `json:"message"`
	MemberType string `json:"memberType,omitempty"`
}

// CheckOTPRequest es el body de POST /v1/signup/check-otp.
type CheckOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// CheckOTPResponse confirma el match del código.
type CheckOTPResponse struct {
	Valid      bool   `json:"valid"`
	MemberType string `json:"memberType,omitempty"`
}

// CompleteSignupRequest es el body de POST /v1/signup/complete.
type CompleteSignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	MemberType      string `json:"memberType,omitempty"`
}

// CompleteSignupResponse devuelve el id del perfil en el provider.
type CompleteSignupResponse struct {
	ProviderProfileID string `json:"providerProfileId"`
}

// UpdateCompanyRequest es el body de POST /v1/signup/company.
type UpdateCompanyRequest struct {
	Email     string `json:"email"`
	CompanyID string `json:"companyId"`
}

// UpdateCompanyResponse devuelve el memberType resuelto.
type UpdateCompanyResponse struct {
	MemberType string `json:"memberType"`
}

// ResendOTPRequest es el body de POST /v1/signup/resend-otp.
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// ResendOTPResponse confirma el reenvío.
type ResendOTPResponse struct {
	Message string `json:"message"`
}
