// Package productlookup finds packaged food products by barcode or name.
package productlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pantry-hub/internal/model"

	"github.com/rs/zerolog"
)

// DefaultCategory is used when a product has no usable category tag.
const DefaultCategory = "other"

const productFields = "code,product_name,brands,categories_tags,quantity,ingredients_text," +
	"nutriments,image_url,image_front_url,nutrition_grades,nova_group,labels_tags,allergens_tags"

// Product is a normalized product record.
type Product struct {
	Barcode        string             `json:"barcode"`
	Name           string             `json:"name"`
	Brands         string             `json:"brands,omitempty"`
	Quantity       string             `json:"quantity,omitempty"`
	Categories     []string           `json:"categories"`
	MainCategory   string             `json:"mainCategory"`
	Ingredients    string             `json:"ingredients,omitempty"`
	Nutrition      map[string]float64 `json:"nutrition"`
	Calories       float64            `json:"calories"`
	NutritionGrade string             `json:"nutritionGrade,omitempty"`
	NovaGroup      int                `json:"novaGroup,omitempty"`
	ImageURL       string             `json:"imageUrl,omitempty"`
	Labels         []string           `json:"labels"`
	Allergens      []string           `json:"allergens"`
}

// SearchResult is one page of a text search.
type SearchResult struct {
	Products   []Product `json:"products"`
	Count      int       `json:"count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}

// Category is a browsable product category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Suggestion is one completion for a partial product name.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client looks up products.
type Client interface {
	// ByBarcode returns the product with barcode, or nil when it is unknown.
	ByBarcode(ctx context.Context, barcode string) (*Product, error)

	// Search runs a text search. Page numbering starts at 1.
	Search(ctx context.Context, query string, page, pageSize int) (*SearchResult, error)

	// ByCategory lists products tagged with category. Page numbering starts at 1.
	ByCategory(ctx context.Context, category string, page, pageSize int) (*SearchResult, error)

	// Suggestions returns at most limit product names completing query.
	Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

var popularCategories = []string{
	"beverages",
	"dairy",
	"breads",
	"cereals-and-potatoes",
	"fruits-and-vegetables",
	"meat",
	"fish",
	"frozen-foods",
	"prepared-meals",
	"snacks",
	"desserts",
	"condiments",
	"oils-and-fats",
	"baby-foods",
	"plant-based-foods",
}

// PopularCategories returns the fixed set of categories offered for browsing.
func PopularCategories() []Category {
	out := make([]Category, len(popularCategories))
	for i, key := range popularCategories {
		out[i] = Category{ID: key, Name: categoryName(key), Key: key}
	}
	return out
}

// categoryName turns "fruits-and-vegetables" into "Fruits And Vegetables".
func categoryName(key string) string {
	words := strings.Split(key, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// CleanBarcode strips the spaces and hyphens scanners and users add.
func CleanBarcode(barcode string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, barcode)
}

// offClient talks to the Open Food Facts API.
type offClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    zerolog.Logger
}

// NewOpenFoodFactsClient creates a Client for the API at baseURL.
func NewOpenFoodFactsClient(baseURL, userAgent string, timeout time.Duration, logger zerolog.Logger) Client {
	return &offClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With().Str("component", "open-food-facts").Logger(),
	}
}

type offProduct struct {
	Code            string         `json:"code"`
	ProductName     string         `json:"product_name"`
	Brands          string         `json:"brands"`
	CategoriesTags  []string       `json:"categories_tags"`
	Quantity        string         `json:"quantity"`
	IngredientsText string         `json:"ingredients_text"`
	Nutriments      map[string]any `json:"nutriments"`
	ImageURL        string         `json:"image_url"`
	ImageFrontURL   string         `json:"image_front_url"`
	NutritionGrades string         `json:"nutrition_grades"`
	NovaGroup       any            `json:"nova_group"`
	LabelsTags      []string       `json:"labels_tags"`
	AllergensTags   []string       `json:"allergens_tags"`
}

type barcodeResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type searchResponse struct {
	Count    any          `json:"count"`
	Page     any          `json:"page"`
	PageSize any          `json:"page_size"`
	Products []offProduct `json:"products"`
}

// ByBarcode fetches one product.
func (c *offClient) ByBarcode(ctx context.Context, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, model.Validation(model.ErrCodeInvalidInput, "Barcode is required")
	}

	endpoint := fmt.Sprintf("%s/api/v2/product/%s?fields=%s", c.baseURL, url.PathEscape(barcode), productFields)

	var resp barcodeResponse
	found, err := c.get(ctx, endpoint, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Status != 1 || resp.Product == nil {
		c.logger.Debug().Str("barcode", barcode).Msg("product not found")
		return nil, nil
	}

	p := formatProduct(resp.Product)
	if p.Barcode == "" {
		p.Barcode = barcode
	}
	return &p, nil
}

// Search runs a full-text product search.
func (c *offClient) Search(ctx context.Context, query string, page, pageSize int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.Validation(model.ErrCodeInvalidInput, "Search query is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := url.Values{}
	params.Set("search_simple", "1")
	params.Set("search_terms", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("json", "1")
	params.Set("fields", productFields)
	endpoint := c.baseURL + "/cgi/search.pl?" + params.Encode()

	var resp searchResponse
	if _, err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return newSearchResult(&resp, page, pageSize), nil
}

// ByCategory lists products by English category tag.
func (c *offClient) ByCategory(ctx context.Context, category string, page, pageSize int) (*SearchResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, model.Validation(model.ErrCodeInvalidInput, "Category is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := url.Values{}
	params.Set("categories_tags_en", category)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("fields", productFields)
	endpoint := c.baseURL + "/api/v2/search?" + params.Encode()

	var resp searchResponse
	if _, err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return newSearchResult(&resp, page, pageSize), nil
}

// Suggestions asks the autocomplete endpoint, which answers with either
// plain strings or {id, name} objects.
func (c *offClient) Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit < 1 {
		return []Suggestion{}, nil
	}

	params := url.Values{}
	params.Set("lc", "en")
	params.Set("tagtype", "products")
	params.Set("string", query)
	endpoint := c.baseURL + "/cgi/suggest.pl?" + params.Encode()

	var raw []json.RawMessage
	found, err := c.get(ctx, endpoint, &raw)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, limit)
	if !found {
		return out, nil
	}
	for _, entry := range raw {
		if len(out) == limit {
			break
		}
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			out = append(out, Suggestion{ID: name, Name: name})
			continue
		}
		var obj Suggestion
		if err := json.Unmarshal(entry, &obj); err == nil && (obj.Name != "" || obj.ID != "") {
			if obj.Name == "" {
				obj.Name = obj.ID
			}
			if obj.ID == "" {
				obj.ID = obj.Name
			}
			out = append(out, obj)
		}
	}
	return out, nil
}

func newSearchResult(resp *searchResponse, page, pageSize int) *SearchResult {
	result := &SearchResult{
		Products: make([]Product, 0, len(resp.Products)),
		Count:    int(toFloat(resp.Count)),
		Page:     page,
		PageSize: pageSize,
	}
	for i := range resp.Products {
		result.Products = append(result.Products, formatProduct(&resp.Products[i]))
	}
	if result.Count > 0 {
		result.TotalPages = (result.Count + pageSize - 1) / pageSize
	}
	return result
}

// get decodes a JSON response into out. A 404 reports found=false.
func (c *offClient) get(ctx context.Context, endpoint string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build product request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("product lookup request failed")
		return false, fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("product lookup returned unexpected status")
		return false, fmt.Errorf("%w: status %d", model.ErrUpstreamFailure, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error().Err(err).Msg("failed to decode product lookup response")
		return false, fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}
	return true, nil
}

var nutritionKeys = map[string][]string{
	"calories":      {"energy-kcal_100g", "energy-kcal"},
	"protein":       {"proteins_100g"},
	"carbohydrates": {"carbohydrates_100g"},
	"sugars":        {"sugars_100g"},
	"fat":           {"fat_100g"},
	"saturatedFat":  {"saturated-fat_100g"},
	"fiber":         {"fiber_100g"},
	"sodium":        {"sodium_100g"},
	"salt":          {"salt_100g"},
}

func formatProduct(p *offProduct) Product {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = "Unknown Product"
	}

	nutrition := make(map[string]float64, len(nutritionKeys))
	for key, sources := range nutritionKeys {
		for _, src := range sources {
			if v, ok := p.Nutriments[src]; ok {
				nutrition[key] = toFloat(v)
				break
			}
		}
		if _, ok := nutrition[key]; !ok {
			nutrition[key] = 0
		}
	}

	image := p.ImageURL
	if image == "" {
		image = p.ImageFrontURL
	}

	return Product{
		Barcode:        p.Code,
		Name:           name,
		Brands:         p.Brands,
		Quantity:       p.Quantity,
		Categories:     nonNil(p.CategoriesTags),
		MainCategory:   mainCategory(p.CategoriesTags),
		Ingredients:    p.IngredientsText,
		Nutrition:      nutrition,
		Calories:       nutrition["calories"],
		NutritionGrade: strings.ToLower(p.NutritionGrades),
		NovaGroup:      int(toFloat(p.NovaGroup)),
		ImageURL:       image,
		Labels:         nonNil(p.LabelsTags),
		Allergens:      nonNil(p.AllergensTags),
	}
}

// mainCategory picks the most specific category tag, skipping the generic
// plant-based umbrella tag.
func mainCategory(tags []string) string {
	for i := len(tags) - 1; i >= 0; i-- {
		tag := tags[i]
		if idx := strings.Index(tag, ":"); idx >= 0 {
			tag = tag[idx+1:]
		}
		if tag == "" || tag == "plant-based-foods-and-beverages" {
			continue
		}
		return tag
	}
	return DefaultCategory
}

// toFloat reads numbers that the API sends either as JSON numbers or strings.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ToEnrichment converts a product into the data stored on a food item.
func (p *Product) ToEnrichment(now time.Time) *model.Enrichment {
	nutrition := make(map[string]float64, len(p.Nutrition))
	for k, v := range p.Nutrition {
		nutrition[k] = v
	}
	return &model.Enrichment{
		Barcode:        p.Barcode,
		Brands:         p.Brands,
		NutritionGrade: p.NutritionGrade,
		NovaGroup:      p.NovaGroup,
		ImageURL:       p.ImageURL,
		Nutrition:      nutrition,
		Labels:         append([]string{}, p.Labels...),
		Allergens:      append([]string{}, p.Allergens...),
		LastUpdated:    now,
	}
}
