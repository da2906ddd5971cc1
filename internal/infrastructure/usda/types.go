package usda

// SearchFood represents a food item from the /foods/search endpoint
type SearchFood struct {
	FdcID           int              `json:"fdcId"`
	Description     string           `json:"description"`
	DataType        string           `json:"dataType"`
	BrandOwner      string           `json:"brandOwner,omitempty"`
	BrandName       string           `json:"brandName,omitempty"`
	GtinUpc         string           `json:"gtinUpc,omitempty"`
	ServingSize     float64          `json:"servingSize,omitempty"`
	ServingSizeUnit string           `json:"servingSizeUnit,omitempty"`
	Score           *float64         `json:"score,omitempty"`
	Nutrients       []SearchNutrient `json:"foodNutrients"`
}

// SearchNutrient is the flat nutrient shape used by search results
type SearchNutrient struct {
	NutrientID     int      `json:"nutrientId"`
	NutrientName   string   `json:"nutrientName"`
	NutrientNumber string   `json:"nutrientNumber,omitempty"`
	UnitName       string   `json:"unitName"`
	Value          *float64 `json:"value"`
}

// SearchResponse represents the response from USDA search API
type SearchResponse struct {
	Foods       []SearchFood `json:"foods"`
	TotalHits   int          `json:"totalHits"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
}

// FoodDetail is the /food/{fdcId} response
type FoodDetail struct {
	FdcID           int              `json:"fdcId"`
	Description     string           `json:"description"`
	DataType        string           `json:"dataType"`
	BrandOwner      string           `json:"brandOwner,omitempty"`
	BrandName       string           `json:"brandName,omitempty"`
	GtinUpc         string           `json:"gtinUpc,omitempty"`
	ServingSize     float64          `json:"servingSize,omitempty"`
	ServingSizeUnit string           `json:"servingSizeUnit,omitempty"`
	Nutrients       []DetailNutrient `json:"foodNutrients"`
}

// DetailNutrient is the nested nutrient shape used by the detail endpoint
type DetailNutrient struct {
	Nutrient struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount *float64 `json:"amount"`
}
