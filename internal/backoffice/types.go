package backoffice

// Resource payloads returned by the back-office REST API. Only the fields
// the gateway and its consumers read are modeled; unknown fields are
// dropped on decode.

type VehicleType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Maker struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Parent *int   `json:"parent,omitempty"`
}

type Vendor struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	GSTIN string `json:"gstin,omitempty"`
}

// FeaturePrice is a vendor's purchase price for one service feature.
type FeaturePrice struct {
	ID      int     `json:"id"`
	Vendor  int     `json:"vendor"`
	Feature string  `json:"feature"`
	Price   float64 `json:"price"`
}

type Product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	SKU   string  `json:"sku,omitempty"`
	Price float64 `json:"price"`
}

type Customer struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Page is the paginated list envelope the API returns for large
// collections. Endpoints serving small reference sets return a bare array
// instead; decodeList accepts both.
type Page[T any] struct {
	Results  []T     `json:"results"`
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}
