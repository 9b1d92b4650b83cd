package grpcserver

import (
	"context"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/payments"
	apperr "github.com/example/momo-gateway/pkg/errors"
)

const PaymentsServiceName = "momo.v1.PaymentsService"

const (
	createPaymentMethod = "/" + PaymentsServiceName + "/CreatePayment"
	checkPaymentMethod  = "/" + PaymentsServiceName + "/CheckPayment"
)

// PaymentsServiceServer takes google.protobuf.Struct in and out:
//
//	CreatePayment {amount, session?}  -> {payUrl, orderId}
//	CheckPayment  {orderId?, session?} -> {result, message, orderId}
type PaymentsServiceServer interface {
	CreatePayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type PaymentsServer struct {
	Payments *payments.Service
}

func (s *PaymentsServer) CreatePayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := in.GetFields()
	amount := f["amount"].GetNumberValue()
	if amount != math.Trunc(amount) || amount > math.MaxInt64 {
		return nil, status.Error(codes.InvalidArgument, "amount must be a whole number")
	}

	res, err := s.Payments.Pay(ctx, f["session"].GetStringValue(), int64(amount))
	if err != nil {
		if res != nil {
			return nil, rejectedStatus(err, res)
		}
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"payUrl":  res.PayURL,
		"orderId": res.Sent.OrderID,
	})
}

func (s *PaymentsServer) CheckPayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := in.GetFields()
	res, err := s.Payments.Check(ctx, f["session"].GetStringValue(), f["orderId"].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"result":  res.ResultCode,
		"message": res.Message,
		"orderId": res.Sent.OrderID,
	})
}

func toStatus(err error) error {
	c := codes.Internal
	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidInput:
		c = codes.InvalidArgument
	case apperr.CodeOrderNotFound:
		c = codes.NotFound
	case apperr.CodeRejected:
		c = codes.FailedPrecondition
	case apperr.CodeTransport, apperr.CodeStatus:
		c = codes.Unavailable
	}
	return status.Error(c, apperr.MessageOf(err))
}

// rejectedStatus carries the gateway's resultCode and the sent orderId as a Struct detail.
func rejectedStatus(err error, res *momo.CreateResult) error {
	st := status.New(codes.FailedPrecondition, apperr.MessageOf(err))
	detail, derr := structpb.NewStruct(map[string]any{
		"resultCode": res.ResultCode,
		"message":    res.Message,
		"orderId":    res.Sent.OrderID,
	})
	if derr != nil {
		return st.Err()
	}
	if withDetail, derr := st.WithDetails(detail); derr == nil {
		st = withDetail
	}
	return st.Err()
}

func RegisterPaymentsServiceServer(s grpc.ServiceRegistrar, srv PaymentsServiceServer) {
	s.RegisterService(&paymentsServiceDesc, srv)
}

var paymentsServiceDesc = grpc.ServiceDesc{
	ServiceName: PaymentsServiceName,
	HandlerType: (*PaymentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreatePayment", Handler: unary(createPaymentMethod, PaymentsServiceServer.CreatePayment)},
		{MethodName: "CheckPayment", Handler: unary(checkPaymentMethod, PaymentsServiceServer.CheckPayment)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "momo/v1/payments.proto",
}

type structMethod func(PaymentsServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PaymentsServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PaymentsServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PaymentsClient is the client side of PaymentsService.
type PaymentsClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentsClient(cc grpc.ClientConnInterface) *PaymentsClient {
	return &PaymentsClient{cc: cc}
}

func (c *PaymentsClient) CreatePayment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, createPaymentMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PaymentsClient) CheckPayment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkPaymentMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
