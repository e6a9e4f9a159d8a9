package handler

type BackfillRequest struct {
	CurrencyCode string `json:"currency_code" binding:"required"`
	Days         int    `json:"days" binding:"required,gt=0"`
}
