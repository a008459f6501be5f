package endpoints

import (
	"fmt"
	"net/http"

	"quote-desk-backend/internal/dto"
	"quote-desk-backend/internal/model"
	"quote-desk-backend/internal/service/quotation"
)

type QuotationEndpoints interface {
	// customer side
	CustomerQuotations(http.ResponseWriter, *http.Request) error
	CustomerQuotation(http.ResponseWriter, *http.Request) error
	// staff side
	Quotations(http.ResponseWriter, *http.Request) error
	Quotation(http.ResponseWriter, *http.Request) error
	QuotationStatus(http.ResponseWriter, *http.Request) error
}

type quotationEndpoints struct {
	service *quotation.Service
}

func NewQuotationEndpoints(service *quotation.Service) QuotationEndpoints {
	return &quotationEndpoints{service: service}
}

func (h *quotationEndpoints) CustomerQuotations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet:  h.handleListOwnQuotations,
		http.MethodPost: h.handleCreateQuotation,
	})
}

func (h *quotationEndpoints) CustomerQuotation(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet: h.handleGetOwnQuotation,
	})
}

func (h *quotationEndpoints) Quotations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet: h.handleListQuotations,
	})
}

func (h *quotationEndpoints) Quotation(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodGet: h.handleGetQuotation,
	})
}

func (h *quotationEndpoints) QuotationStatus(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, handlerMap{
		http.MethodPatch: h.handleUpdateStatus,
		http.MethodPut:   h.handleUpdateStatus,
	})
}

func (h *quotationEndpoints) handleListOwnQuotations(w http.ResponseWriter, r *http.Request) error {
	customer, err := requestIdentity(r)
	if err != nil {
		return err
	}
	items, err := h.service.ListCustomerQuotations(r.Context(), customer)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toQuotationList(items))
}

func (h *quotationEndpoints) handleCreateQuotation(w http.ResponseWriter, r *http.Request) error {
	customer, err := requestIdentity(r)
	if err != nil {
		return err
	}
	var req dto.CreateQuotationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	params := quotation.CreateParams{
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Notes:        req.Notes,
		LineItems:    make([]quotation.LineItemParams, len(req.LineItems)),
	}
	for i, li := range req.LineItems {
		price, err := model.ParseMoney(li.UnitPrice)
		if err != nil {
			return &HTTPError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Invalid unit price for line item %d", i+1),
				ErrorLog:   err,
			}
		}
		params.LineItems[i] = quotation.LineItemParams{Name: li.Name, UnitPrice: price, Quantity: li.Quantity}
	}

	q, err := h.service.CreateQuotation(r.Context(), customer, params)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusCreated, toQuotationResponse(q))
}

func (h *quotationEndpoints) handleGetOwnQuotation(w http.ResponseWriter, r *http.Request) error {
	customer, err := requestIdentity(r)
	if err != nil {
		return err
	}
	id, err := pathValue(r, "quotationId")
	if err != nil {
		return err
	}
	q, err := h.service.GetQuotation(r.Context(), id)
	if err != nil {
		return serviceError(err)
	}
	// someone else's quotation looks the same as a missing one
	if q.CustomerIdentity != customer {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "quotation not found",
			ErrorLog:   fmt.Errorf("%s asked for quotation %s of %s", customer, q.ID, q.CustomerIdentity),
		}
	}
	return WriteJSON(w, http.StatusOK, toQuotationResponse(q))
}

func (h *quotationEndpoints) handleListQuotations(w http.ResponseWriter, r *http.Request) error {
	items, err := h.service.ListQuotations(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toQuotationList(items))
}

func (h *quotationEndpoints) handleGetQuotation(w http.ResponseWriter, r *http.Request) error {
	id, err := pathValue(r, "quotationId")
	if err != nil {
		return err
	}
	q, err := h.service.GetQuotation(r.Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toQuotationResponse(q))
}

func (h *quotationEndpoints) handleUpdateStatus(w http.ResponseWriter, r *http.Request) error {
	admin, err := requestIdentity(r)
	if err != nil {
		return err
	}
	id, err := pathValue(r, "quotationId")
	if err != nil {
		return err
	}
	var req dto.UpdateQuotationStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.UpdateStatus(r.Context(), admin, id, req.Status)
	if err != nil {
		return serviceError(err)
	}

	resp := dto.UpdateQuotationStatusResponse{
		Quotation: toQuotationResponse(result.Quotation),
		Changed:   result.Changed,
	}
	if result.Message != nil {
		msg := toMessageResponse(*result.Message, false)
		resp.Message = &msg
	}
	return WriteJSON(w, http.StatusOK, resp)
}
