// momo-gateway/internal/momo/types.go
package momo

// Nilai tetap yang dikirim ke gateway untuk setiap order.
const (
	PartnerName = "Test"
	StoreID     = "MomoTestStore"
	OrderInfo   = "pay with MoMo"
	RequestType = "payWithMethod"
	Lang        = "vi"

	CreatePath = "/v2/gateway/api/create"
	QueryPath  = "/v2/gateway/api/query"
)

// CreateRequest is the body of POST /v2/gateway/api/create. Field order follows the gateway docs.
type CreateRequest struct {
	PartnerCode  string `json:"partnerCode"`
	PartnerName  string `json:"partnerName"`
	StoreID      string `json:"storeId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderID      string `json:"orderId"`
	OrderInfo    string `json:"orderInfo"`
	RedirectURL  string `json:"redirectUrl"`
	IPNURL       string `json:"ipnUrl"`
	Lang         string `json:"lang"`
	RequestType  string `json:"requestType"`
	AutoCapture  bool   `json:"autoCapture"`
	ExtraData    string `json:"extraData"`
	OrderGroupID string `json:"orderGroupId"`
	PaymentCode  string `json:"paymentCode,omitempty"`
	Signature    string `json:"signature"`
}

type CreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink,omitempty"`
	QRCodeURL    string `json:"qrCodeUrl,omitempty"`
}

// CreateResult pairs the gateway reply with the exact request that produced it.
type CreateResult struct {
	Sent CreateRequest
	CreateResponse
}

type QueryRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	OrderID     string `json:"orderId"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type QueryResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	ExtraData    string `json:"extraData"`
	Amount       int64  `json:"amount"`
	TransID      int64  `json:"transId"`
	PayType      string `json:"payType"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	ResponseTime int64  `json:"responseTime"`
}

type QueryResult struct {
	Sent QueryRequest
	QueryResponse
}
