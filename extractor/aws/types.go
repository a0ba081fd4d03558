package aws

const (
	MaxResultsPerPage int32 = 100

	FormatVersion  = "aws_v1"
	ServiceCodeEC2 = "AmazonEC2"

	CurrencyUSD = "USD"
	UnitHours   = "Hrs"
)

// Item is the subset of one Price List API record this tool reads.
// Paths missing from the payload decode to their zero values.
type Item struct {
	Product     Product `json:"product"`
	ServiceCode string  `json:"serviceCode"`
	Terms       Terms   `json:"terms"`
}

type Product struct {
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
	Sku           string            `json:"sku"`
}

type Terms struct {
	OnDemand map[string]OfferTerm `json:"OnDemand"`
	Reserved map[string]OfferTerm `json:"Reserved"`
}

type OfferTerm struct {
	PriceDimensions map[string]PriceDimension `json:"priceDimensions"`
	Sku             string                    `json:"sku"`
	EffectiveDate   string                    `json:"effectiveDate"`
	OfferTermCode   string                    `json:"offerTermCode"`
}

type PriceDimension struct {
	Unit         string            `json:"unit"`
	EndRange     string            `json:"endRange"`
	Description  string            `json:"description"`
	AppliesTo    []string          `json:"appliesTo"`
	RateCode     string            `json:"rateCode"`
	BeginRange   string            `json:"beginRange"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
}

// Attr returns a product attribute, or "" when it is absent.
func (i Item) Attr(name string) string {
	return i.Product.Attributes[name]
}
