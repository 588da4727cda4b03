package handler

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/validator"
)

const MovieServiceName = "movieaggregator.v1.MovieService"

// MovieServiceServer is the gRPC surface. Messages are well-known protobuf
// types, so no generated code is needed:
//
//	ListMovies(Struct{filter, page, page_limit}) -> Struct{movies: [...]}
//	DumpCache(Empty) -> Struct{movieSearch, movieDetails, countryFlags}
type MovieServiceServer interface {
	ListMovies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DumpCache(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterMovieServiceServer(s grpc.ServiceRegistrar, srv MovieServiceServer) {
	s.RegisterService(&movieServiceDesc, srv)
}

var movieServiceDesc = grpc.ServiceDesc{
	ServiceName: MovieServiceName,
	HandlerType: (*MovieServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListMovies", Handler: listMoviesHandler},
		{MethodName: "DumpCache", Handler: dumpCacheHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "movieaggregator/v1/movie_service.proto",
}

func listMoviesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor) (interface{}, error) {

	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieServiceServer).ListMovies(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + MovieServiceName + "/ListMovies",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieServiceServer).ListMovies(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func dumpCacheHandler(srv interface{}, ctx context.Context, dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor) (interface{}, error) {

	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieServiceServer).DumpCache(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + MovieServiceName + "/DumpCache",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieServiceServer).DumpCache(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type GRPCHandler struct {
	service   MovieLister
	validator validator.PageValidator
	logger    *zap.Logger
}

func NewGRPCHandler(service MovieLister, pages validator.PageValidator, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{
		service:   service,
		validator: pages,
		logger:    logger,
	}
}

func (h *GRPCHandler) ListMovies(ctx context.Context,
	req *structpb.Struct) (*structpb.Struct, error) {

	fields := req.GetFields()
	page, pageLimit, err := h.validator.Parse(numberField(fields, "page"), numberField(fields, "page_limit"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	filter := fields["filter"].GetStringValue()

	movies, err := h.service.ListMovies(ctx, filter, page, pageLimit)
	if err != nil {
		h.logger.Error("Failed to list movies", zap.Error(err), zap.String("filter", filter))
		return nil, status.Errorf(codes.Internal, "failed to list movies: %v", err)
	}

	list := make([]interface{}, 0, len(movies))
	for _, m := range movies {
		countries := make([]interface{}, 0, len(m.Countries))
		for _, c := range m.Countries {
			var flag interface{}
			if c.Flag != nil {
				flag = *c.Flag
			}
			countries = append(countries, map[string]interface{}{"name": c.Name, "flag": flag})
		}
		list = append(list, map[string]interface{}{
			"title":     m.Title,
			"year":      m.Year,
			"countries": countries,
		})
	}

	resp, err := structpb.NewStruct(map[string]interface{}{"movies": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movies: %v", err)
	}
	return resp, nil
}

func (h *GRPCHandler) DumpCache(ctx context.Context,
	_ *emptypb.Empty) (*structpb.Struct, error) {

	dump, err := h.service.DumpCache(ctx)
	if err != nil {
		h.logger.Error("Failed to dump cache", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "failed to dump cache: %v", err)
	}

	fields, err := dumpFields(dump)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode cache: %v", err)
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode cache: %v", err)
	}
	return resp, nil
}

// dumpFields converts the dump through its JSON form so Struct sees only
// maps, slices and scalars.
func dumpFields(dump *domain.CacheDump) (map[string]interface{}, error) {
	data, err := json.Marshal(dump)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// numberField renders a numeric field for the page validator; absent
// fields yield "" so defaults apply.
func numberField(fields map[string]*structpb.Value, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	case *structpb.Value_StringValue:
		return kind.StringValue
	default:
		return "invalid"
	}
}

var _ MovieServiceServer = (*GRPCHandler)(nil)
