package entities

// Credentials содержит учетные данные для регистрации и входа.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest возвращает тело запроса входа без имени пользователя.
func (c Credentials) LoginRequest() Credentials {
	return Credentials{Email: c.Email, Password: c.Password}
}
