package api

import (
	"context"
	"errors"
	"math"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"marketplace-catalog-service/internal/catalog"
	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/store"
)

// CatalogServiceServer is the server API for the marketplace.v1.CatalogService service.
// Messages are google.protobuf.Struct values with the same field names as the HTTP API.
type CatalogServiceServer interface {
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCategories(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GRPCHandler implements CatalogServiceServer on top of a ProductStorer.
type GRPCHandler struct {
	productStore store.ProductStorer
	logger       *zap.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(ps store.ProductStorer, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{productStore: ps, logger: logger}
}

// Register attaches the handler to s.
func (s *GRPCHandler) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(&CatalogService_ServiceDesc, s)
}

// --- Helper: Error Mapping ---
func (s *GRPCHandler) mapStoreErrorToGrpcStatus(err error, resourceName string, resourceID interface{}) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrProductNotFound):
		return status.Errorf(codes.NotFound, "%s with ID %v not found", resourceName, resourceID)
	case errors.Is(err, store.ErrInvalidProduct), errors.Is(err, store.ErrInvalidOrder):
		return status.Errorf(codes.InvalidArgument, "%v", err)
	case errors.Is(err, store.ErrInsufficientStock):
		return status.Errorf(codes.FailedPrecondition, "Insufficient stock for %s ID %v", resourceName, resourceID)
	default:
		s.logger.Error("Store operation failed", zap.String("resource", resourceName), zap.Any("id", resourceID), zap.Error(err))
		return status.Errorf(codes.Internal, "Failed to process request for %s ID %v", resourceName, resourceID)
	}
}

func (s *GRPCHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sel, err := listQuery{
		Category:    stringField(req, "category"),
		Subcategory: stringField(req, "subcategory"),
		Search:      stringField(req, "q"),
		MinPrice:    stringField(req, "min_price"),
		MaxPrice:    stringField(req, "max_price"),
		MinRating:   stringField(req, "min_rating"),
		InStock:     stringField(req, "in_stock"),
		Sort:        stringField(req, "sort"),
	}.selection()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	limit := clampLimit(int(numberField(req, "page_size")))
	offset := 0
	if token := stringField(req, "page_token"); token != "" {
		parsed, err := strconv.Atoi(token)
		if err != nil || parsed < 0 {
			return nil, status.Errorf(codes.InvalidArgument, "Invalid page_token %q", token)
		}
		offset = parsed
	}

	products, err := s.productStore.ListCatalog(ctx)
	if err != nil {
		return nil, s.mapStoreErrorToGrpcStatus(err, "Catalog", "all")
	}
	matched := catalog.FilterAndSort(products, sel.Config())

	offset = min(offset, len(matched))
	end := min(offset+limit, len(matched))
	items := make([]interface{}, 0, limit)
	for i := offset; i < end; i++ {
		items = append(items, productToMap(matched[i]))
	}
	var nextPageToken string
	if end < len(matched) {
		nextPageToken = strconv.Itoa(end)
	}
	filters := make([]interface{}, 0)
	for _, f := range sel.ActiveFilters() {
		filters = append(filters, map[string]interface{}{"kind": string(f.Kind), "label": f.Label})
	}

	s.logger.Debug("Listed products", zap.Int("matched", len(matched)), zap.Int("returned", len(items)), zap.String("next_page_token", nextPageToken))
	return newStruct(map[string]interface{}{
		"products":        items,
		"next_page_token": nextPageToken,
		"total_size":      len(matched),
		"active_filters":  filters,
	})
}

func (s *GRPCHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := numberField(req, "id")
	productID := int64(raw)
	if productID <= 0 || float64(productID) != raw {
		return nil, status.Errorf(codes.InvalidArgument, "Product ID must be a positive integer")
	}

	product, err := s.productStore.GetProductByID(ctx, productID)
	if err != nil {
		return nil, s.mapStoreErrorToGrpcStatus(err, "Product", productID)
	}
	return newStruct(productToMap(*product))
}

func (s *GRPCHandler) ListCategories(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	products, err := s.productStore.ListCatalog(ctx)
	if err != nil {
		return nil, s.mapStoreErrorToGrpcStatus(err, "Catalog", "all")
	}

	categories := make([]interface{}, 0)
	for _, c := range categoryCounts(products) {
		subs := make([]interface{}, len(c.Subcategories))
		for i, sub := range c.Subcategories {
			subs[i] = sub
		}
		categories = append(categories, map[string]interface{}{
			"name":          string(c.Name),
			"subcategories": subs,
			"product_count": c.ProductCount,
		})
	}
	return newStruct(map[string]interface{}{"categories": categories})
}

// --- Helpers: Struct conversion ---

func productToMap(p domain.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":           p.ID,
		"name":         p.Name,
		"description":  p.Description,
		"price":        p.Price,
		"category":     string(p.Category),
		"subcategory":  p.Subcategory,
		"image_url":    p.ImageURL,
		"stock":        p.Stock,
		"rating":       p.Rating,
		"review_count": p.ReviewCount,
	}
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode response: %v", err)
	}
	return st, nil
}

// stringField renders a request field as the string the query parser expects.
// Missing and null fields are empty.
func stringField(st *structpb.Struct, key string) string {
	v, ok := st.GetFields()[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		if math.IsInf(k.NumberValue, 1) {
			return "Inf"
		}
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		return ""
	}
}

func numberField(st *structpb.Struct, key string) float64 {
	v, ok := st.GetFields()[key]
	if !ok {
		return 0
	}
	if s, isString := v.GetKind().(*structpb.Value_StringValue); isString {
		f, err := strconv.ParseFloat(s.StringValue, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return v.GetNumberValue()
}

// --- Service descriptor ---

const catalogServiceName = "marketplace.v1.CatalogService"

// CatalogService_ServiceDesc is the grpc.ServiceDesc for the catalog service.
var CatalogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: catalogServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListProducts", Handler: catalogServiceHandler("ListProducts", CatalogServiceServer.ListProducts)},
		{MethodName: "GetProduct", Handler: catalogServiceHandler("GetProduct", CatalogServiceServer.GetProduct)},
		{MethodName: "ListCategories", Handler: catalogServiceHandler("ListCategories", CatalogServiceServer.ListCategories)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/catalog.proto",
}

type catalogMethod func(CatalogServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// methodHandler has the shape grpc.MethodDesc expects for Handler.
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func catalogServiceHandler(name string, call catalogMethod) methodHandler {
	fullMethod := "/" + catalogServiceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CatalogServiceClient is the client API for the catalog service.
type CatalogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogServiceClient(cc grpc.ClientConnInterface) *CatalogServiceClient {
	return &CatalogServiceClient{cc: cc}
}

func (c *CatalogServiceClient) ListProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListProducts", in, opts)
}

func (c *CatalogServiceClient) GetProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetProduct", in, opts)
}

func (c *CatalogServiceClient) ListCategories(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListCategories", in, opts)
}

func (c *CatalogServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+catalogServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
