package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/workshoplabs/refgate/internal/backoffice"
	"github.com/workshoplabs/refgate/internal/refdata"
)

type handlerFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func vendorSearchParams(query string) backoffice.ListParams {
	return backoffice.ListParams{Search: query}
}

// ListVehicleTypesHandler returns the MCP handler for "list-vehicle-types".
func ListVehicleTypesHandler(svc *refdata.Service) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := svc.VehicleTypes(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		sb.WriteString("# Vehicle types\n")
		for _, it := range items {
			fmt.Fprintf(&sb, "- %d: %s\n", it.ID, it.Name)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// ListMakersHandler returns the MCP handler for "list-makers".
func ListMakersHandler(svc *refdata.Service) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := svc.Makers(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		sb.WriteString("# Makers\n")
		for _, it := range items {
			fmt.Fprintf(&sb, "- %d: %s\n", it.ID, it.Name)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// ListCategoriesHandler returns the MCP handler for "list-categories".
func ListCategoriesHandler(svc *refdata.Service) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := svc.Categories(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		sb.WriteString("# Categories\n")
		for _, it := range items {
			if it.Parent != nil {
				fmt.Fprintf(&sb, "- %d: %s (parent %d)\n", it.ID, it.Name, *it.Parent)
			} else {
				fmt.Fprintf(&sb, "- %d: %s\n", it.ID, it.Name)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// SearchVendorsHandler returns the MCP handler for "search-vendors".
func SearchVendorsHandler(svc *refdata.Service) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		items, count, err := svc.Vendors(ctx, vendorSearchParams(query))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "# Vendors matching %q (%d total)\n", query, count)
		for _, v := range items {
			fmt.Fprintf(&sb, "- %d: %s", v.ID, v.Name)
			if v.Phone != "" {
				fmt.Fprintf(&sb, " (%s)", v.Phone)
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// VendorFeaturePricesHandler returns the MCP handler for
// "vendor-feature-prices".
func VendorFeaturePricesHandler(svc *refdata.Service) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("vendor_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return mcp.NewToolResultError("vendor_id must be an integer"), nil
		}
		items, err := svc.FeaturePrices(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "# Feature prices for vendor %d\n", id)
		for _, fp := range items {
			fmt.Fprintf(&sb, "- %s: %.2f\n", fp.Feature, fp.Price)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// SearchCustomersHandler returns the MCP handler for "search-customers".
func SearchCustomersHandler(svc *refdata.Service) handlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		items, err := svc.SearchCustomers(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "# Customers matching %q\n", query)
		for _, cu := range items {
			fmt.Fprintf(&sb, "- %d: %s", cu.ID, cu.Name)
			if cu.Phone != "" {
				fmt.Fprintf(&sb, " (%s)", cu.Phone)
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
