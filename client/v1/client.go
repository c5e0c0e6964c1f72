package v1

type Client struct {
	Transport *Transport
	Tokens    *TokenEndpoint
	Users     *UserEndpoint
	Reports   *ReportEndpoint
}

// NewClient initializes the API client. token may be empty and set later by Tokens.Login.
func NewClient(baseURL string, token string) *Client {
	t := NewTransport(baseURL, token)
	return &Client{
		Transport: t,
		Tokens:    &TokenEndpoint{transport: t},
		Users:     &UserEndpoint{transport: t},
		Reports:   &ReportEndpoint{transport: t},
	}
}
