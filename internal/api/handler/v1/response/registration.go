package response

type EligibilityResponse struct {
	Status string `json:"status"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
