package domain

// Collection names of the record store; each maps to <name>.json.
const (
	Users     = "users"
	Products  = "products"
	Skus      = "skus"
	Carts     = "carts"
	Orders    = "orders"
	Payments  = "payments"
	Shipments = "shipments"
	Ratings   = "ratings"
	Returns   = "returns"
)

// ID prefixes.
const (
	PrefixUser      = "usr"
	PrefixProduct   = "prd"
	PrefixSku       = "sku"
	PrefixCart      = "crt"
	PrefixCartItem  = "cit"
	PrefixOrder     = "ord"
	PrefixOrderItem = "oit"
	PrefixPayment   = "pay"
	PrefixShipment  = "shp"
	PrefixRating    = "rate"
)
