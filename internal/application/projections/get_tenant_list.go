package projections

import (
	"context"
	"fmt"

	"rosteriq/internal/adapters/storage/tenant"
	"rosteriq/internal/application/listutil"
	domainTenant "rosteriq/internal/domain/tenant"
)

// TenantListFilterKeys are the query parameters the tenant list accepts.
var TenantListFilterKeys = []string{"status"}

// GetTenantListResult is the /platform/tenants view model.
type GetTenantListResult struct {
	Tenants   []domainTenant.Tenant
	Params    listutil.Params
	Page      listutil.PageInfo
	Timezones []string
	// DefaultTimezone is preselected on the create form.
	DefaultTimezone string
}

// GetTenantListDeps holds dependencies for GetTenantList.
type GetTenantListDeps struct {
	Tenants TenantStore
}

// QueryGetTenantList returns one page of tenants ordered by name.
// PRE: params came from listutil.Parse with TenantListFilterKeys
// POST: an unknown status filter is ignored
func QueryGetTenantList(ctx context.Context, params listutil.Params, deps GetTenantListDeps) (GetTenantListResult, error) {
	filter := tenant.ListFilter{Search: params.Search}
	if s := domainTenant.Status(params.Filter("status")); s.Valid() {
		filter.Status = s
	} else {
		delete(params.Filters, "status")
	}

	total, err := deps.Tenants.Count(ctx, filter)
	if err != nil {
		return GetTenantListResult{}, fmt.Errorf("count tenants: %w", err)
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	ts, err := deps.Tenants.List(ctx, filter)
	if err != nil {
		return GetTenantListResult{}, fmt.Errorf("list tenants: %w", err)
	}
	return GetTenantListResult{
		Tenants:         ts,
		Params:          params,
		Page:            page,
		Timezones:       domainTenant.Timezones,
		DefaultTimezone: domainTenant.DefaultTimezone,
	}, nil
}
