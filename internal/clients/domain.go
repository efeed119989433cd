package clients

import "errors"

// ErrNotFound indicates the client does not exist.
var ErrNotFound = errors.New("client not found")

// Client is a customer master-data row consumed by quotation drafting.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}
