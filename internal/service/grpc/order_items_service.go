package grpcsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
	"github.com/vladislavdragonenkov/storefront/internal/service/orderview"
)

// OrderItemsService реализует gRPC API группировки позиций заказа.
type OrderItemsService struct {
	view   *orderview.Service
	logger *log.Entry
}

var _ OrderItemsServiceServer = (*OrderItemsService)(nil)

// NewOrderItemsService конструирует сервис.
func NewOrderItemsService(view *orderview.Service, logger *log.Entry) *OrderItemsService {
	if logger == nil {
		logger = log.New().WithField("component", "grpc")
	}
	return &OrderItemsService{view: view, logger: logger}
}

// FormatOrderItems группирует переданные позиции: {lines: [...]}.
func (s *OrderItemsService) FormatOrderItems(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	lines, err := linesFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	summary := s.view.Format(lines)
	resp, err := summaryToStruct(summary)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode format response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

// GetOrderSummary возвращает сводку сохранённого заказа: {order_id}.
func (s *OrderItemsService) GetOrderSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	orderID := strings.TrimSpace(req.GetFields()["order_id"].GetStringValue())
	if orderID == "" {
		return nil, status.Error(codes.InvalidArgument, domain.ErrOrderIDRequired.Error())
	}

	summary, err := s.view.Summary(ctx, orderID)
	if err != nil {
		return nil, s.mapError(err, orderID)
	}

	resp, err := summaryToStruct(summary)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to encode summary response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

// FormatSizesDisplay рендерит строку размеров: {sizes: [{size, quantity}]} -> {display}.
func (s *OrderItemsService) FormatSizesDisplay(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sizes, err := sizesFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := structpb.NewStruct(map[string]any{
		"display": orderitems.FormatSizesDisplay(sizes),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

func (s *OrderItemsService) mapError(err error, orderID string) error {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return status.Error(codes.NotFound, domain.ErrOrderNotFound.Error())
	case errors.Is(err, domain.ErrOrderIDRequired), errors.Is(err, domain.ErrLineInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to build order summary")
		return status.Error(codes.Internal, fmt.Sprintf("failed to build summary for order %s", orderID))
	}
}
