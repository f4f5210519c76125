package discovery_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/crushconnect/internal/logger"
	"github.com/oggyb/crushconnect/internal/server"
	"github.com/oggyb/crushconnect/internal/service/discovery"
)

// dial serves the Discovery API over an in-memory listener and returns a
// connection to it.
func dial(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(logger.Nop(), discovery.NewRegistrar(f.env.App, f.engine, f.ledger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	client := discovery.NewClient(dial(t, f))

	like, err := client.Like(ctx, &discovery.LikeRequest{ActorUserId: id(f.u1), RecipientUserId: id(f.u3)})
	require.NoError(t, err)
	assert.Equal(t, "match", like.Status)

	matches, err := client.ListMatches(ctx, &discovery.UserRequest{UserId: id(f.u1)})
	require.NoError(t, err)
	assert.Len(t, matches.Matches, 2)

	admirers, err := client.ListAdmirers(ctx, &discovery.ListAdmirersRequest{UserId: id(f.u1)})
	require.NoError(t, err)
	assert.Empty(t, admirers.Admirers)

	mine, err := client.ListMyLikes(ctx, &discovery.ListMyLikesRequest{UserId: id(f.u3)})
	require.NoError(t, err)
	assert.Empty(t, mine.Likes)
}

func TestGRPC_StatusCodes(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	client := discovery.NewClient(dial(t, f))

	_, err := client.Like(ctx, &discovery.LikeRequest{ActorUserId: "0", RecipientUserId: id(f.u2)})
	assertCode(t, err, codes.InvalidArgument)

	_, err = client.Reveal(ctx, &discovery.MatchRequest{MatchId: itoa(f.matchID), UserId: id(f.u4)})
	assertCode(t, err, codes.PermissionDenied)

	_, err = client.Reveal(ctx, &discovery.MatchRequest{MatchId: "404", UserId: id(f.u1)})
	assertCode(t, err, codes.NotFound)

	_, err = client.Act(ctx, &discovery.ActRequest{UserId: id(f.u1), Data: "superlike_3"})
	assertCode(t, err, codes.InvalidArgument)
}

func TestGRPC_Health(t *testing.T) {
	f := setupService(t)
	health := healthpb.NewHealthClient(dial(t, f))

	resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: discovery.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
