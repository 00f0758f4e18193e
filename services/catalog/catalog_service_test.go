package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCatalogClient_Lookup(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.New()
	hits := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "/items/"+itemID.String(), r.URL.Path)
		fmt.Fprintf(w, `{"item_id": %q, "title": "Used iPhone 12 128GB", "price": "350.00"}`, itemID)
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, logging.NewLogger())

	listing, err := client.Lookup(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, "Used iPhone 12 128GB", listing.Title)
	require.True(t, listing.Price.Equal(decimal.RequireFromString("350.00")))

	// second lookup is served from cache
	_, err = client.Lookup(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, 1, hits)
}

func TestCatalogClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, logging.NewLogger())
	_, err := client.Lookup(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrListingNotFound)
}

func TestCatalogClient_InvalidData(t *testing.T) {
	var tests = []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"missing title", `{"price": "10.00"}`},
		{"unparseable price", `{"title": "thing", "price": "ten"}`},
		{"non-positive price", `{"title": "thing", "price": "0"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewCatalogClient(server.URL, logging.NewLogger())
			_, err := client.Lookup(context.Background(), uuid.New())
			require.ErrorIs(t, err, ErrInvalidListingData)
		})
	}
}

func TestStaticCatalog(t *testing.T) {
	ctx := context.Background()
	static := NewStaticCatalog()
	itemID := uuid.New()
	static.Add(Listing{ItemID: itemID, Title: "Desk lamp", Price: decimal.RequireFromString("12.99")})

	listing, err := static.Lookup(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, "Desk lamp", listing.Title)

	_, err = static.Lookup(ctx, uuid.New())
	require.ErrorIs(t, err, ErrListingNotFound)
}
