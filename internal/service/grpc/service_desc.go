package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Полные имена методов storefront.v1.OrderItemsService.
const (
	ServiceName = "storefront.v1.OrderItemsService"

	MethodFormatOrderItems   = "/" + ServiceName + "/FormatOrderItems"
	MethodGetOrderSummary    = "/" + ServiceName + "/GetOrderSummary"
	MethodFormatSizesDisplay = "/" + ServiceName + "/FormatSizesDisplay"
)

// OrderItemsServiceServer — серверная часть сервиса. Сообщения нетипизированные (google.protobuf.Struct).
type OrderItemsServiceServer interface {
	FormatOrderItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrderSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FormatSizesDisplay(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// OrderItemsServiceDesc описывает сервис для grpc.Server.
var OrderItemsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderItemsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FormatOrderItems", Handler: unaryHandler(MethodFormatOrderItems, OrderItemsServiceServer.FormatOrderItems)},
		{MethodName: "GetOrderSummary", Handler: unaryHandler(MethodGetOrderSummary, OrderItemsServiceServer.GetOrderSummary)},
		{MethodName: "FormatSizesDisplay", Handler: unaryHandler(MethodFormatSizesDisplay, OrderItemsServiceServer.FormatSizesDisplay)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/order_items.proto",
}

// RegisterOrderItemsServiceServer регистрирует реализацию на сервере.
func RegisterOrderItemsServiceServer(registrar grpc.ServiceRegistrar, srv OrderItemsServiceServer) {
	registrar.RegisterService(&OrderItemsServiceDesc, srv)
}

type unaryMethod func(OrderItemsServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(OrderItemsServiceServer)
		if interceptor == nil {
			return method(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// OrderItemsClient — клиент сервиса поверх любого grpc.ClientConnInterface.
type OrderItemsClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderItemsClient создаёт клиента.
func NewOrderItemsClient(cc grpc.ClientConnInterface) *OrderItemsClient {
	return &OrderItemsClient{cc: cc}
}

func (c *OrderItemsClient) FormatOrderItems(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodFormatOrderItems, in, opts...)
}

func (c *OrderItemsClient) GetOrderSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetOrderSummary, in, opts...)
}

func (c *OrderItemsClient) FormatSizesDisplay(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodFormatSizesDisplay, in, opts...)
}

func (c *OrderItemsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
