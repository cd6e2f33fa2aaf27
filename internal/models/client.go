package models

// Client — клиент, которому можно оформить подписку на проект.
type Client struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Status  string `json:"status"`
}

// ProjectInfo — краткие сведения о проекте для ответов API.
type ProjectInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
