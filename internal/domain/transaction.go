package domain

import (
	"time"
)

// TimestampLayout is the textual form of ledger and audit timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// Timestamp is a local wall-clock time stored at second precision.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to seconds.
func Now() Timestamp {
	return Timestamp{time.Now().Truncate(time.Second)}
}

// String formats the timestamp using TimestampLayout.
func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timestamp) UnmarshalText(b []byte) error {
	parsed, err := time.ParseInLocation(TimestampLayout, string(b), time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Transaction is an immutable ledger record of a completed purchase.
type Transaction struct {
	// TransactionID is the generated identifier (TXN-XXXXXXXX).
	TransactionID  string    `xml:"transactionId"`
	ProductID      string    `xml:"productId"`
	BuyerUsername  string    `xml:"buyerUsername"`
	SellerUsername string    `xml:"sellerUsername"`
	Quantity       int       `xml:"quantity"`
	Timestamp      Timestamp `xml:"timestamp"`
}

// NewTransaction records a purchase of quantity units of p by buyer.
func NewTransaction(p *Product, buyer string, quantity int) *Transaction {
	return &Transaction{
		TransactionID:  NewTransactionID(),
		ProductID:      p.ProductID,
		BuyerUsername:  buyer,
		SellerUsername: p.SellerUsername,
		Quantity:       quantity,
		Timestamp:      Now(),
	}
}
