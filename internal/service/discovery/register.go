package discovery

import (
	"google.golang.org/grpc"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/service/coins"
	"github.com/oggyb/crushconnect/internal/service/matching"
	"github.com/oggyb/crushconnect/internal/service/ranking"
)

// Registrar ties the Discovery service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	engine *matching.Engine
	ledger *coins.Ledger
}

// NewRegistrar creates a new Registrar for the Discovery service
func NewRegistrar(appCtx *app.AppContext, engine *matching.Engine, ledger *coins.Ledger) *Registrar {
	return &Registrar{appCtx: appCtx, engine: engine, ledger: ledger}
}

// Register attaches the Discovery service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	service := NewDiscoveryService(r.appCtx, ranking.NewRanker(r.appCtx), r.engine, r.ledger)
	RegisterDiscoveryServer(s, service)
}
