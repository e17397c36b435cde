package dto

// TokenResponse is the outbound contract of login and refresh. RefreshToken
// is omitted when the client opted into cookie delivery.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	CSRFToken    string      `json:"csrf_token"`
	User         *UserOutput `json:"user,omitempty"`
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
	ExpiresIn int    `json:"expires_in"`
}

type LogoutResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}
