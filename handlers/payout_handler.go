package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"starset-backend/middleware"
)

// PayoutHandler renders UPI payment QR codes for contributor payouts.
// Settlement itself happens out of band; this only encodes the payment URI.
type PayoutHandler struct{}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler() *PayoutHandler {
	return &PayoutHandler{}
}

// QR handles GET /payouts/qr?upi=...&amount=...&name=...
func (h *PayoutHandler) QR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	upi := r.URL.Query().Get("upi")
	if upi == "" || !strings.Contains(upi, "@") {
		middleware.Error(w, http.StatusBadRequest, "upi parameter required, e.g. name@bank")
		return
	}

	params := url.Values{"pa": {upi}, "cu": {"INR"}}
	if amount := r.URL.Query().Get("amount"); amount != "" {
		params.Set("am", amount)
	}
	if name := r.URL.Query().Get("name"); name != "" {
		params.Set("pn", name)
	}
	uri := fmt.Sprintf("upi://pay?%s", params.Encode())

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
