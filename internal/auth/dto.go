package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"usuario"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK            bool     `json:"ok"`
	Username      string   `json:"usuario"`
	Role          string   `json:"rol"`
	Organizations []string `json:"escuelas"`
	Token         string   `json:"token,omitempty"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
