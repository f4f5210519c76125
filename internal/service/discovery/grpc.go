package discovery

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crushconnect.discovery.v1.DiscoveryService"

// codecName must match server.CodecName; messages are plain structs sent as JSON.
const codecName = "json"

// DiscoveryServer is the server API for the Discovery service.
type DiscoveryServer interface {
	Rank(context.Context, *RankRequest) (*RankResponse, error)
	NextCandidate(context.Context, *NextCandidateRequest) (*NextCandidateResponse, error)
	Like(context.Context, *LikeRequest) (*LikeResponse, error)
	Pass(context.Context, *PassRequest) (*PassResponse, error)
	Unlike(context.Context, *UnlikeRequest) (*UnlikeResponse, error)
	Unmatch(context.Context, *MatchRequest) (*MatchView, error)
	Reveal(context.Context, *MatchRequest) (*RevealResponse, error)
	PaidReveal(context.Context, *MatchRequest) (*RevealResponse, error)
	CountAdmirers(context.Context, *UserRequest) (*CountAdmirersResponse, error)
	ListAdmirers(context.Context, *ListAdmirersRequest) (*ListAdmirersResponse, error)
	ListMyLikes(context.Context, *ListMyLikesRequest) (*ListMyLikesResponse, error)
	ListMatches(context.Context, *UserRequest) (*ListMatchesResponse, error)
	Act(context.Context, *ActRequest) (*ActResponse, error)
}

var _ DiscoveryServer = (*Service)(nil)

// unary builds a method descriptor in the shape protoc-gen-go-grpc emits.
func unary[Req, Resp any](name string, call func(DiscoveryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DiscoveryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DiscoveryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for the Discovery service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Rank", DiscoveryServer.Rank),
		unary("NextCandidate", DiscoveryServer.NextCandidate),
		unary("Like", DiscoveryServer.Like),
		unary("Pass", DiscoveryServer.Pass),
		unary("Unlike", DiscoveryServer.Unlike),
		unary("Unmatch", DiscoveryServer.Unmatch),
		unary("Reveal", DiscoveryServer.Reveal),
		unary("PaidReveal", DiscoveryServer.PaidReveal),
		unary("CountAdmirers", DiscoveryServer.CountAdmirers),
		unary("ListAdmirers", DiscoveryServer.ListAdmirers),
		unary("ListMyLikes", DiscoveryServer.ListMyLikes),
		unary("ListMatches", DiscoveryServer.ListMatches),
		unary("Act", DiscoveryServer.Act),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crushconnect/discovery/v1/discovery.json",
}

// RegisterDiscoveryServer attaches srv to s.
func RegisterDiscoveryServer(s grpc.ServiceRegistrar, srv DiscoveryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the Discovery service over a JSON-coded connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Rank(ctx context.Context, in *RankRequest, opts ...grpc.CallOption) (*RankResponse, error) {
	return invoke[RankResponse](ctx, c, "Rank", in, opts...)
}

func (c *Client) NextCandidate(ctx context.Context, in *NextCandidateRequest, opts ...grpc.CallOption) (*NextCandidateResponse, error) {
	return invoke[NextCandidateResponse](ctx, c, "NextCandidate", in, opts...)
}

func (c *Client) Like(ctx context.Context, in *LikeRequest, opts ...grpc.CallOption) (*LikeResponse, error) {
	return invoke[LikeResponse](ctx, c, "Like", in, opts...)
}

func (c *Client) Pass(ctx context.Context, in *PassRequest, opts ...grpc.CallOption) (*PassResponse, error) {
	return invoke[PassResponse](ctx, c, "Pass", in, opts...)
}

func (c *Client) Unlike(ctx context.Context, in *UnlikeRequest, opts ...grpc.CallOption) (*UnlikeResponse, error) {
	return invoke[UnlikeResponse](ctx, c, "Unlike", in, opts...)
}

func (c *Client) Unmatch(ctx context.Context, in *MatchRequest, opts ...grpc.CallOption) (*MatchView, error) {
	return invoke[MatchView](ctx, c, "Unmatch", in, opts...)
}

func (c *Client) Reveal(ctx context.Context, in *MatchRequest, opts ...grpc.CallOption) (*RevealResponse, error) {
	return invoke[RevealResponse](ctx, c, "Reveal", in, opts...)
}

func (c *Client) PaidReveal(ctx context.Context, in *MatchRequest, opts ...grpc.CallOption) (*RevealResponse, error) {
	return invoke[RevealResponse](ctx, c, "PaidReveal", in, opts...)
}

func (c *Client) CountAdmirers(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*CountAdmirersResponse, error) {
	return invoke[CountAdmirersResponse](ctx, c, "CountAdmirers", in, opts...)
}

func (c *Client) ListAdmirers(ctx context.Context, in *ListAdmirersRequest, opts ...grpc.CallOption) (*ListAdmirersResponse, error) {
	return invoke[ListAdmirersResponse](ctx, c, "ListAdmirers", in, opts...)
}

func (c *Client) ListMyLikes(ctx context.Context, in *ListMyLikesRequest, opts ...grpc.CallOption) (*ListMyLikesResponse, error) {
	return invoke[ListMyLikesResponse](ctx, c, "ListMyLikes", in, opts...)
}

func (c *Client) ListMatches(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, "ListMatches", in, opts...)
}

func (c *Client) Act(ctx context.Context, in *ActRequest, opts ...grpc.CallOption) (*ActResponse, error) {
	return invoke[ActResponse](ctx, c, "Act", in, opts...)
}
