package fatsecret

import (
	"encoding/json"
	"fmt"

	"github.com/macrolens/foodengine/internal/domain"
)

// oneOrMany decodes FatSecret lists, which collapse to a bare object when
// they hold a single element.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) toProviderError() *domain.ProviderError {
	err := fmt.Errorf("api error %d: %s", e.Code, e.Message)
	switch e.Code {
	case 2, 3, 4, 5, 6, 7, 8, 9, 13, 14, 21:
		return domain.NewProviderError(ProviderName, domain.KindAuthFailure, err)
	case 12, 22, 23:
		return domain.NewProviderError(ProviderName, domain.KindRateLimited, err)
	case 106, 107, 108:
		return domain.NewProviderError(ProviderName, domain.KindNotFound, err)
	}
	return domain.NewProviderError(ProviderName, domain.KindSchemaError, err)
}

type searchFood struct {
	FoodID          string `json:"food_id"`
	FoodName        string `json:"food_name"`
	FoodType        string `json:"food_type"`
	BrandName       string `json:"brand_name"`
	FoodDescription string `json:"food_description"`
	FoodURL         string `json:"food_url"`
}

type searchResponse struct {
	Foods *struct {
		Food         oneOrMany[searchFood] `json:"food"`
		MaxResults   string                `json:"max_results"`
		TotalResults string                `json:"total_results"`
	} `json:"foods"`
	Error *apiError `json:"error"`
}

type serving struct {
	ServingID           string `json:"serving_id"`
	ServingDescription  string `json:"serving_description"`
	MetricServingAmount string `json:"metric_serving_amount"`
	MetricServingUnit   string `json:"metric_serving_unit"`
	Calories            string `json:"calories"`
	Protein             string `json:"protein"`
	Carbohydrate        string `json:"carbohydrate"`
	Fat                 string `json:"fat"`
	Fiber               string `json:"fiber"`
	Sugar               string `json:"sugar"`
	Sodium              string `json:"sodium"`
	SaturatedFat        string `json:"saturated_fat"`
	TransFat            string `json:"trans_fat"`
	Cholesterol         string `json:"cholesterol"`
	Potassium           string `json:"potassium"`
	Calcium             string `json:"calcium"`
	Iron                string `json:"iron"`
}

// fields lists serving values by FatSecret field name
func (s serving) fields() map[string]string {
	return map[string]string{
		"calories":      s.Calories,
		"protein":       s.Protein,
		"carbohydrate":  s.Carbohydrate,
		"fat":           s.Fat,
		"fiber":         s.Fiber,
		"sugar":         s.Sugar,
		"sodium":        s.Sodium,
		"saturated_fat": s.SaturatedFat,
		"trans_fat":     s.TransFat,
		"cholesterol":   s.Cholesterol,
		"potassium":     s.Potassium,
		"calcium":       s.Calcium,
		"iron":          s.Iron,
	}
}

type detailFood struct {
	FoodID    string `json:"food_id"`
	FoodName  string `json:"food_name"`
	FoodType  string `json:"food_type"`
	BrandName string `json:"brand_name"`
	Servings  struct {
		Serving oneOrMany[serving] `json:"serving"`
	} `json:"servings"`
}

type foodGetResponse struct {
	Food  *detailFood `json:"food"`
	Error *apiError   `json:"error"`
}

type barcodeResponse struct {
	FoodID *struct {
		Value string `json:"value"`
	} `json:"food_id"`
	Error *apiError `json:"error"`
}
