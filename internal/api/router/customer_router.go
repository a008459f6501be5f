package router

import (
	"net/http"

	"quote-desk-backend/internal/api"
	"quote-desk-backend/internal/api/endpoints"
	"quote-desk-backend/internal/api/middleware"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/quotation"
)

type CustomerServices struct {
	Chat       *chat.Service
	Quotations *quotation.Service
}

func CustomerRoutes(prefix string, services CustomerServices) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		auth := middleware.ValidateCustomerJWT()

		quotationEndpoints := endpoints.NewQuotationEndpoints(services.Quotations)
		mux.HandleFunc(prefix+"/quotations", s.MakeHTTPHandleFunc(quotationEndpoints.CustomerQuotations, auth))
		mux.HandleFunc(prefix+"/quotations/{quotationId}", s.MakeHTTPHandleFunc(quotationEndpoints.CustomerQuotation, auth))

		messageEndpoints := endpoints.NewMessageEndpoints(services.Chat)
		mux.HandleFunc(prefix+"/messages", s.MakeHTTPHandleFunc(messageEndpoints.Messages, auth))
		mux.HandleFunc(prefix+"/messages/{messageId}", s.MakeHTTPHandleFunc(messageEndpoints.Message, auth))
		mux.HandleFunc(prefix+"/messages/{messageId}/status", s.MakeHTTPHandleFunc(messageEndpoints.MessageStatus, auth))
	}
}
