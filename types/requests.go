package types

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type RegisterRequest struct {
	Name    string `json:"name" binding:"required"`
	Age     int    `json:"age" binding:"required"`
	Contact string `json:"contact" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
}

type RegistrationTokenRequest struct {
	ClientId string `json:"clientId" form:"clientId"`
	Token    string `json:"token" form:"token" binding:"required"`
}

type PageRequest struct {
	PageNumber int `form:"pageNumber" binding:"omitempty,min=1"`
	PageSize   int `form:"pageSize" binding:"omitempty,min=0,max=100"`
}

type SearchRequest struct {
	Keyword string `form:"keyword" binding:"required"`
	PageRequest
}
