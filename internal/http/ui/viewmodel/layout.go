package viewmodel

// User represents the signed-in broker exposed to templates.
type User struct {
	Email string
	Name  string
	Role  string
}

// Site carries the agent's public contact details shown in the chrome.
type Site struct {
	Name        string
	AgentName   string
	CRECI       string
	WhatsAppURL string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title        string
	CurrentPage  string
	CSRFToken    string
	AdminArea    bool
	IsAuthorized bool
	IsAdmin      bool
	User         *User
	Site         Site
}
