package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// Listing is the title+price snapshot the settlement engine captures at
// transaction-creation time.
type Listing struct {
	ItemID uuid.UUID       `json:"item_id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
}

// Lookup resolves an item id against the listing catalog.
type Lookup interface {
	Lookup(ctx context.Context, itemID uuid.UUID) (*Listing, error)
}

// CatalogClient talks to the external listing service. Responses are
// cached briefly; the price snapshot stored on a transaction makes
// later catalog changes irrelevant anyway.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
	logger  *logging.Logger
}

func NewCatalogClient(baseURL string, logger *logging.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		logger:  logger,
	}
}

type listingResponse struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Price  string `json:"price"`
}

func (c *CatalogClient) Lookup(ctx context.Context, itemID uuid.UUID) (*Listing, error) {
	if cached, found := c.cache.Get(itemID.String()); found {
		listing := cached.(Listing)
		return &listing, nil
	}

	url := fmt.Sprintf("%s/items/%s", c.baseURL, itemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrListingNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var body listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Error(fmt.Sprintf("Failed to decode catalog response for item %v: %v", itemID, err))
		return nil, ErrInvalidListingData
	}

	listing, err := toListing(itemID, body)
	if err != nil {
		return nil, err
	}

	c.cache.Set(itemID.String(), *listing, cache.DefaultExpiration)
	return listing, nil
}

func toListing(itemID uuid.UUID, body listingResponse) (*Listing, error) {
	if body.Title == "" {
		return nil, ErrInvalidListingData
	}
	price, err := decimal.NewFromString(body.Price)
	if err != nil || !price.IsPositive() {
		return nil, ErrInvalidListingData
	}
	return &Listing{ItemID: itemID, Title: body.Title, Price: price}, nil
}

// StaticCatalog serves listings from memory. Used in tests and when no
// CATALOG_BASE_URL is configured.
type StaticCatalog struct {
	listings map[uuid.UUID]Listing
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{listings: make(map[uuid.UUID]Listing)}
}

func (c *StaticCatalog) Add(listing Listing) {
	c.listings[listing.ItemID] = listing
}

func (c *StaticCatalog) Lookup(ctx context.Context, itemID uuid.UUID) (*Listing, error) {
	listing, ok := c.listings[itemID]
	if !ok {
		return nil, ErrListingNotFound
	}
	return &listing, nil
}
