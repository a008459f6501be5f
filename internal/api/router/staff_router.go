package router

import (
	"net/http"

	"quote-desk-backend/internal/api"
	"quote-desk-backend/internal/api/endpoints"
	"quote-desk-backend/internal/api/middleware"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/dashboard"
	"quote-desk-backend/internal/service/quotation"
	"quote-desk-backend/internal/websocket"
)

type StaffServices struct {
	Chat       *chat.Service
	Quotations *quotation.Service
	Dashboard  *dashboard.Aggregator
	Sockets    *websocket.Handler
}

// StaffRoutes serves the admin dashboard. Only tokens of the aggregator's
// admins get through.
func StaffRoutes(prefix string, services StaffServices) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		auth := middleware.ValidateStaffJWT(services.Dashboard.Admins())

		dashboardEndpoints := endpoints.NewDashboardEndpoints(services.Dashboard, services.Chat, services.Sockets)
		mux.HandleFunc(prefix+"/dashboard", s.MakeHTTPHandleFunc(dashboardEndpoints.Dashboard, auth))
		mux.HandleFunc(prefix+"/dashboard/{conversationId}/read", s.MakeHTTPHandleFunc(dashboardEndpoints.DashboardRead, auth))
		mux.HandleFunc(prefix+"/dashboard/{conversationId}/archive", s.MakeHTTPHandleFunc(dashboardEndpoints.DashboardArchive, auth))
		mux.HandleFunc(prefix+"/ws/dashboard", s.MakeHTTPHandleFunc(dashboardEndpoints.Websocket, auth))

		quotationEndpoints := endpoints.NewQuotationEndpoints(services.Quotations)
		mux.HandleFunc(prefix+"/quotations", s.MakeHTTPHandleFunc(quotationEndpoints.Quotations, auth))
		mux.HandleFunc(prefix+"/quotations/{quotationId}", s.MakeHTTPHandleFunc(quotationEndpoints.Quotation, auth))
		mux.HandleFunc(prefix+"/quotations/{quotationId}/status", s.MakeHTTPHandleFunc(quotationEndpoints.QuotationStatus, auth))

		messageEndpoints := endpoints.NewMessageEndpoints(services.Chat)
		mux.HandleFunc(prefix+"/conversations/{conversationId}/messages", s.MakeHTTPHandleFunc(messageEndpoints.ConversationMessages, auth))
		mux.HandleFunc(prefix+"/conversations/{conversationId}/messages/{messageId}", s.MakeHTTPHandleFunc(messageEndpoints.ConversationMessage, auth))
	}
}
