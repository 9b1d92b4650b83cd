// services/api-gateway/handlers/types.go
package handlers

type PayIn struct {
	Amount int64 `json:"amount"`
}

type PayOut struct {
	PayURL  string `json:"payUrl"`
	OrderID string `json:"orderId"`
}

type CheckIn struct {
	OrderID string `json:"orderId"`
}

type CheckOut struct {
	Result  int    `json:"result"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"orderId"`
}

type OrderIDOut struct {
	OrderID string `json:"orderId"`
}

type ErrorOut struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	ResultCode *int   `json:"resultCode,omitempty"`
}
