package dto

type LineItemRequest struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type CreateQuotationRequest struct {
	CompanyName  string            `json:"companyName"`
	ContactName  string            `json:"contactName,omitempty"`
	ContactEmail string            `json:"contactEmail,omitempty"`
	ContactPhone string            `json:"contactPhone,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	LineItems    []LineItemRequest `json:"lineItems"`
}

type UpdateQuotationStatusRequest struct {
	Status string `json:"status"`
}

type LineItemResponse struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

type QuotationResponse struct {
	QuotationID         string             `json:"quotationId"`
	CustomerIdentity    string             `json:"customerIdentity"`
	CompanyName         string             `json:"companyName"`
	ContactName         string             `json:"contactName,omitempty"`
	ContactEmail        string             `json:"contactEmail,omitempty"`
	ContactPhone        string             `json:"contactPhone,omitempty"`
	Notes               string             `json:"notes,omitempty"`
	Status              string             `json:"status"`
	LineItems           []LineItemResponse `json:"lineItems"`
	Subtotal            string             `json:"subtotal"`
	CreatedAt           int64              `json:"createdAt"`
	LastUpdatedAt       int64              `json:"lastUpdatedAt"`
	ApprovedAt          int64              `json:"approvedAt,omitempty"`
	RejectedAt          int64              `json:"rejectedAt,omitempty"`
	ActingAdminIdentity string             `json:"actingAdminIdentity,omitempty"`
}

type ListQuotationsResponse struct {
	Quotations []QuotationResponse `json:"quotations"`
}

type UpdateQuotationStatusResponse struct {
	Quotation QuotationResponse `json:"quotation"`
	Changed   bool              `json:"changed"`
	Message   *MessageResponse  `json:"message,omitempty"`
}
