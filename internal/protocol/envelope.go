package protocol

import (
	"encoding/xml"
	"strings"

	"github.com/prn-tf/freshdeal/internal/domain"
)

// Request is the envelope sent by clients.
type Request struct {
	XMLName  xml.Name `xml:"request"`
	Action   string   `xml:"action"`
	Username string   `xml:"username,omitempty"`
	Data     *Fields  `xml:"data,omitempty"`
}

// NewRequest creates a request for action on behalf of username.
func NewRequest(action, username string) *Request {
	return &Request{Action: action, Username: username}
}

// With sets a data field and returns the request for chaining.
func (r *Request) With(name, value string) *Request {
	if r.Data == nil {
		r.Data = &Fields{}
	}
	r.Data.Set(name, value)
	return r
}

// Field returns the trimmed value of a data field, or "" when absent.
func (r *Request) Field(name string) string {
	return r.Data.Get(name)
}

// HasField reports whether the request carries a non-empty data field.
func (r *Request) HasField(name string) bool {
	return r.Data.Get(name) != ""
}

// Field is one child element of a request's <data> block.
type Field struct {
	Name  string
	Value string
}

// Fields holds the children of <data> in document order. Only the first
// occurrence of a name is kept and values are trimmed.
type Fields struct {
	items []Field
}

// Get returns the value for name. A nil receiver has no fields.
func (f *Fields) Get(name string) string {
	if f == nil {
		return ""
	}
	for _, it := range f.items {
		if it.Name == name {
			return it.Value
		}
	}
	return ""
}

// Set replaces the value for name or appends a new field.
func (f *Fields) Set(name, value string) {
	for i := range f.items {
		if f.items[i].Name == name {
			f.items[i].Value = value
			return
		}
	}
	f.items = append(f.items, Field{Name: name, Value: value})
}

// All returns the fields in document order.
func (f *Fields) All() []Field {
	if f == nil {
		return nil
	}
	return append([]Field(nil), f.items...)
}

// UnmarshalXML implements xml.Unmarshaler.
func (f *Fields) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v struct {
				Text string `xml:",chardata"`
			}
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			name := t.Name.Local
			if hasName(f.items, name) {
				continue
			}
			f.items = append(f.items, Field{Name: name, Value: strings.TrimSpace(v.Text)})
		case xml.EndElement:
			return nil
		}
	}
}

// MarshalXML implements xml.Marshaler.
func (f *Fields) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, it := range f.items {
		if err := e.EncodeElement(it.Value, xml.StartElement{Name: xml.Name{Local: it.Name}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func hasName(items []Field, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// Response is the envelope returned for every request.
type Response struct {
	XMLName xml.Name `xml:"response"`
	Status  Status   `xml:"status"`
	Message string   `xml:"message"`
	Data    *Data    `xml:"data,omitempty"`
}

// NewResponse creates a response without payload.
func NewResponse(status Status, message string) *Response {
	return &Response{Status: status, Message: message}
}

// Success creates a SUCCESS response.
func Success(message string) *Response { return NewResponse(StatusSuccess, message) }

// Failed creates a FAILED response.
func Failed(message string) *Response { return NewResponse(StatusFailed, message) }

// Error creates an ERROR response.
func Error(message string) *Response { return NewResponse(StatusError, message) }

// WithData attaches a payload and returns the response.
func (r *Response) WithData(d *Data) *Response {
	r.Data = d
	return r
}

// Data is the optional payload of a response. Only the members relevant to
// the action are set.
type Data struct {
	Role          string `xml:"role,omitempty"`
	AccountID     string `xml:"accountId,omitempty"`
	ProductID     string `xml:"productId,omitempty"`
	TransactionID string `xml:"transactionId,omitempty"`

	Users        *UserList        `xml:"users,omitempty"`
	Products     *ProductList     `xml:"products,omitempty"`
	Transactions *TransactionList `xml:"transactions,omitempty"`
	Logs         *LogList         `xml:"ServerLog,omitempty"`
}

// UserView is an account as shown to clients. It never carries the password.
type UserView struct {
	AccountID string `xml:"accountId"`
	Username  string `xml:"username"`
	Role      string `xml:"role"`
	Status    string `xml:"status"`
}

// UserList wraps <user> elements.
type UserList struct {
	Users []UserView `xml:"user"`
}

// NewUserList builds a password-free listing of accounts.
func NewUserList(accounts []domain.Account) *UserList {
	list := &UserList{Users: make([]UserView, 0, len(accounts))}
	for _, a := range accounts {
		list.Users = append(list.Users, UserView{
			AccountID: a.AccountID,
			Username:  a.Username,
			Role:      string(a.Role),
			Status:    string(a.Status),
		})
	}
	return list
}

// ProductList wraps <product> elements.
type ProductList struct {
	Products []domain.Product `xml:"product"`
}

// TransactionList wraps <transaction> elements.
type TransactionList struct {
	Transactions []domain.Transaction `xml:"transaction"`
}

// LogList wraps <LogEntry> elements.
type LogList struct {
	Entries []domain.LogEntry `xml:"LogEntry"`
}
