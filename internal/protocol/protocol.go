// Package protocol defines the FreshDeal wire format: one tag-delimited XML
// request per TCP connection, answered by one XML response.
package protocol

// Status is the outcome reported in a response envelope.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
	StatusDenied  Status = "DENIED"
	StatusError   Status = "ERROR"
)

// Action names accepted by the server.
const (
	ActionLogin          = "LOGIN"
	ActionRegister       = "REGISTER"
	ActionFetchAllUsers  = "FETCH_ALL_USERS"
	ActionUpdateStatus   = "UPDATE_USER_STATUS"
	ActionDeleteUser     = "DELETE_USER"
	ActionChangePassword = "CHANGE_PASSWORD"
	ActionFetchLogs      = "FETCH_LOGS"

	ActionAddProduct          = "ADD_PRODUCT"
	ActionFetchAllProducts    = "FETCH_ALL_PRODUCTS"
	ActionFetchSellerProducts = "FETCH_SELLER_PRODUCTS"
	ActionUpdateProduct       = "UPDATE_PRODUCT"
	ActionDeleteProduct       = "DELETE_PRODUCT"
	ActionSearchProducts      = "SEARCH_PRODUCTS"
	ActionBuyProduct          = "BUY_PRODUCT"

	ActionFetchMyPurchases     = "FETCH_MY_PURCHASES"
	ActionFetchMySales         = "FETCH_MY_SALES"
	ActionFetchAllTransactions = "FETCH_ALL_TRANSACTIONS"
)

// Request data field names.
const (
	FieldPassword          = "password"
	FieldRole              = "role"
	FieldTargetUsername    = "targetUsername"
	FieldNewStatus         = "newStatus"
	FieldOldPassword       = "oldPassword"
	FieldNewPassword       = "newPassword"
	FieldProductID         = "productId"
	FieldName              = "name"
	FieldCategory          = "category"
	FieldOriginalPrice     = "originalPrice"
	FieldDiscountedPrice   = "discountedPrice"
	FieldAvailableQuantity = "availableQuantity"
	FieldExpiryDate        = "expiryDate"
	FieldStatus            = "status"
	FieldKeyword           = "keyword"
	FieldQuantity          = "quantity"
)

// Envelope-level error messages.
const (
	MsgEmptyRequest    = "Empty request received."
	MsgMissingAction   = "Missing <action> in request."
	MsgMissingUsername = "Missing <username> in request."
	MsgTooLarge        = "Request too large."
	MsgTimedOut        = "Request timed out."
	MsgInternalError   = "Internal server error."
	MsgAccessDenied    = "Access denied."
)
