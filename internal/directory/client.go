// Package directory provides HTTP clients for the back-office master-data
// services an order references: the customer directory, the sales-rep
// directory and the product catalog.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/medsupply-io/backoffice/internal/domain"
)

type CustomerClient struct {
	baseURL string
	client  *http.Client
}

func NewCustomerClient(baseURL string, client *http.Client) *CustomerClient {
	return &CustomerClient{baseURL: baseURL, client: client}
}

func (c *CustomerClient) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := getJSON(ctx, c.client, c.baseURL+"/customers/"+id, domain.KindCustomer, id, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

type SalesRepClient struct {
	baseURL string
	client  *http.Client
}

func NewSalesRepClient(baseURL string, client *http.Client) *SalesRepClient {
	return &SalesRepClient{baseURL: baseURL, client: client}
}

func (c *SalesRepClient) GetSalesRep(ctx context.Context, id string) (*domain.SalesRep, error) {
	var rep domain.SalesRep
	if err := getJSON(ctx, c.client, c.baseURL+"/users/"+id, domain.KindSalesRep, id, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string, client *http.Client) *CatalogClient {
	return &CatalogClient{baseURL: baseURL, client: client}
}

func (c *CatalogClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := getJSON(ctx, c.client, c.baseURL+"/products/"+id, domain.KindProduct, id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func getJSON(ctx context.Context, client *http.Client, url, kind, id string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", kind, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s directory: %w", kind, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s directory returned status %d", kind, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", kind, err)
	}

	return nil
}
