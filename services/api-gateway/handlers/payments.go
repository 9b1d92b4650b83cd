// services/api-gateway/handlers/payments.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/momo-gateway/internal/payments"
	apperr "github.com/example/momo-gateway/pkg/errors"
)

// SessionHeader identifies the caller for the per-session latest order.
const SessionHeader = "X-Session-ID"

type Deps struct {
	Payments *payments.Service
}

// PayHandler: POST /pay {amount} -> {payUrl, orderId}
func PayHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in PayIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorOut{Error: "invalid request body, expected {amount}", Code: apperr.CodeInvalidInput})
			return
		}

		session := r.Header.Get(SessionHeader)
		if session == "" {
			session = uuid.NewString()
		}
		w.Header().Set(SessionHeader, session)

		res, err := d.Payments.Pay(r.Context(), session, in.Amount)
		if err != nil {
			if res != nil {
				log.Printf("[api-gateway] pay %s rejected: resultCode=%d message=%q", res.Sent.OrderID, res.ResultCode, res.Message)
			} else {
				log.Printf("[api-gateway] pay amount=%d: %v", in.Amount, err)
			}
			writeError(w, err, res)
			return
		}
		writeJSON(w, http.StatusOK, PayOut{PayURL: res.PayURL, OrderID: res.Sent.OrderID})
	}
}

// CheckHandler: POST /check [{orderId}] -> {result, message, orderId}
func CheckHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CheckIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorOut{Error: "invalid request body, expected {orderId}", Code: apperr.CodeInvalidInput})
			return
		}
		if in.OrderID == "" {
			in.OrderID = r.URL.Query().Get("orderId")
		}

		res, err := d.Payments.Check(r.Context(), r.Header.Get(SessionHeader), in.OrderID)
		if err != nil {
			log.Printf("[api-gateway] check %q: %v", in.OrderID, err)
			writeError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, CheckOut{Result: res.ResultCode, Message: res.Message, OrderID: res.Sent.OrderID})
	}
}

// OrderIDHandler: GET /orderId -> latest order id (session first, then global)
func OrderIDHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, OrderIDOut{OrderID: d.Payments.LatestOrder(r.Header.Get(SessionHeader))})
	}
}

// OrderHandler: GET /orders/{orderId} -> stored order record
func OrderHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := d.Payments.Order(r.Context(), mux.Vars(r)["orderId"])
		if err != nil {
			writeError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func WelcomeHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Momo REST-API"})
}
