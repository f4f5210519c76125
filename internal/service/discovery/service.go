package discovery

import (
	"context"
	"errors"
	"strconv"

	"github.com/oggyb/crushconnect/internal/action"
	"github.com/oggyb/crushconnect/internal/app"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/repository"
	"github.com/oggyb/crushconnect/internal/service/coins"
	"github.com/oggyb/crushconnect/internal/service/matching"
	"github.com/oggyb/crushconnect/internal/service/ranking"
)

// admirersPageSize is the page size of ListAdmirers and ListMyLikes.
const admirersPageSize = 5

// Service implements the Discovery gRPC API.
// It turns wire requests into calls on the ranking, matching and coin
// services and maps their errors to gRPC status codes.
type Service struct {
	appCtx   *app.AppContext
	ranker   *ranking.Ranker
	deck     *ranking.Deck
	engine   *matching.Engine
	ledger   *coins.Ledger
	paid     *coins.PaidReveal
	likeRepo *repository.LikeRepository
}

// NewDiscoveryService creates a Discovery service on top of an engine built by
// the caller (it owns the announcement queue wiring).
func NewDiscoveryService(appCtx *app.AppContext, ranker *ranking.Ranker, engine *matching.Engine, ledger *coins.Ledger) *Service {
	return &Service{
		appCtx:   appCtx,
		ranker:   ranker,
		deck:     ranking.NewDeck(appCtx, ranker),
		engine:   engine,
		ledger:   ledger,
		paid:     coins.NewPaidReveal(appCtx, ledger, engine),
		likeRepo: repository.NewLikeRepository(appCtx.DB),
	}
}

func parseID(field, value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument(field + " must be a valid uint64")
	}
	return id, nil
}

func parsePair(actor, recipient string) (uint64, uint64, error) {
	actorID, err := parseID("actor_user_id", actor)
	if err != nil {
		return 0, 0, err
	}
	recipientID, err := parseID("recipient_user_id", recipient)
	if err != nil {
		return 0, 0, err
	}
	return actorID, recipientID, nil
}

func (f Filters) candidateFilters() repository.CandidateFilters {
	return repository.CandidateFilters{Campus: f.Campus, Department: f.Department, Year: f.Year}
}

// Rank returns the ranked candidates of a viewer.
//
// Behavior:
//   - An unknown or ineligible viewer gets an empty list, not an error.
//   - Filters are exact matches on campus, department and year.
//
// Example:
//
//	svc.Rank(ctx, &RankRequest{ViewerUserId: "42", Filters: Filters{Campus: "Main"}})
func (s *Service) Rank(ctx context.Context, req *RankRequest) (*RankResponse, error) {
	s.appCtx.Logger.Debug("Rank called", "viewer", req.ViewerUserId, "filters", req.Filters)

	viewerID, err := parseID("viewer_user_id", req.ViewerUserId)
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(ctx, viewerID, req.Filters.candidateFilters())
	resp := &RankResponse{Candidates: make([]CandidateView, 0, len(ranked))}
	for _, c := range ranked {
		resp.Candidates = append(resp.Candidates, candidateView(c))
	}
	return resp, nil
}

// NextCandidate pops the next profile from the viewer's deck.
func (s *Service) NextCandidate(ctx context.Context, req *NextCandidateRequest) (*NextCandidateResponse, error) {
	viewerID, err := parseID("viewer_user_id", req.ViewerUserId)
	if err != nil {
		return nil, err
	}
	if req.Reset {
		s.deck.Reset(ctx, viewerID)
	}
	return &NextCandidateResponse{Candidate: s.next(ctx, viewerID, req.Filters)}, nil
}

func (s *Service) next(ctx context.Context, viewerID uint64, filters Filters) *CandidateView {
	u := s.deck.Next(ctx, viewerID, filters.candidateFilters())
	if u == nil {
		return nil
	}
	v := userView(*u)
	return &v
}

// Like records a like and reports whether it produced a match.
//
// Example:
//
//	svc.Like(ctx, &LikeRequest{ActorUserId: "1", RecipientUserId: "2"}) // {Status: "match", MatchId: "9"}
func (s *Service) Like(ctx context.Context, req *LikeRequest) (*LikeResponse, error) {
	s.appCtx.Logger.Debug("Like called", "actor", req.ActorUserId, "recipient", req.RecipientUserId)

	actorID, recipientID, err := parsePair(req.ActorUserId, req.RecipientUserId)
	if err != nil {
		return nil, err
	}
	res := s.engine.Like(ctx, actorID, recipientID)
	if res.Err != nil {
		return nil, svcErr.Map(res.Err)
	}
	return likeResponse(res), nil
}

func likeResponse(res matching.Result) *LikeResponse {
	resp := &LikeResponse{Status: string(res.Status)}
	if res.MatchID != 0 {
		resp.MatchId = formatID(res.MatchID)
	}
	return resp
}

// Pass records that the actor skipped the recipient.
func (s *Service) Pass(ctx context.Context, req *PassRequest) (*PassResponse, error) {
	actorID, recipientID, err := parsePair(req.ActorUserId, req.RecipientUserId)
	if err != nil {
		return nil, err
	}
	res := s.engine.Pass(ctx, actorID, recipientID)
	if res.Err != nil {
		return nil, svcErr.Map(res.Err)
	}
	return &PassResponse{Status: string(res.Status)}, nil
}

// Unlike withdraws a like that has not become a match.
func (s *Service) Unlike(ctx context.Context, req *UnlikeRequest) (*UnlikeResponse, error) {
	actorID, recipientID, err := parsePair(req.ActorUserId, req.RecipientUserId)
	if err != nil {
		return nil, err
	}
	removed, err := s.engine.Unlike(ctx, actorID, recipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &UnlikeResponse{Removed: removed}, nil
}

func parseMatchRequest(req *MatchRequest) (uint64, uint64, error) {
	matchID, err := parseID("match_id", req.MatchId)
	if err != nil {
		return 0, 0, err
	}
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return 0, 0, err
	}
	return matchID, userID, nil
}

// Unmatch ends a match and returns it as it is afterwards.
func (s *Service) Unmatch(ctx context.Context, req *MatchRequest) (*MatchView, error) {
	matchID, userID, err := parseMatchRequest(req)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.Unmatch(ctx, matchID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	v := matchView(*m)
	return &v, nil
}

// Reveal reveals a match without charging. Admin and test tooling use it.
func (s *Service) Reveal(ctx context.Context, req *MatchRequest) (*RevealResponse, error) {
	matchID, userID, err := parseMatchRequest(req)
	if err != nil {
		return nil, err
	}
	ok, err := s.engine.Reveal(ctx, matchID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &RevealResponse{Revealed: ok}, nil
}

// PaidReveal charges the reveal cost and reveals; coins are refunded when
// the reveal fails.
func (s *Service) PaidReveal(ctx context.Context, req *MatchRequest) (*RevealResponse, error) {
	matchID, userID, err := parseMatchRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.paid.Reveal(ctx, matchID, userID); err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &RevealResponse{Revealed: true}
	if balance, err := s.ledger.Balance(ctx, userID); err == nil {
		resp.Balance = &balance
	}
	return resp, nil
}

// CountAdmirers returns how many users liked the user without a match yet.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID), refreshing its TTL.
//  2. On a miss, counts in the DB via repository.CountAdmirers.
//  3. Stores the DB count with a 1h TTL.
//
// Example:
//
//	svc.CountAdmirers(ctx, &UserRequest{UserId: "42"})
func (s *Service) CountAdmirers(ctx context.Context, req *UserRequest) (*CountAdmirersResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	// try cache first
	if n, ok, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, userID); err == nil && ok {
		return &CountAdmirersResponse{Count: uint64(n)}, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("admirer count cache read failed", "user", userID, "err", err)
	}

	// fallback: DB
	count, err := s.likeRepo.CountAdmirers(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetAdmirerCount(ctx, userID, count)

	return &CountAdmirersResponse{Count: uint64(count)}, nil
}

// ListAdmirers returns the users who liked the user and have no active match
// with them, newest first, with cursor pagination.
func (s *Service) ListAdmirers(ctx context.Context, req *ListAdmirersRequest) (*ListAdmirersResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	likes, nextToken, err := s.likeRepo.ListAdmirers(ctx, userID, req.PaginationToken, admirersPageSize)
	if err != nil {
		s.appCtx.Logger.Error("ListAdmirers failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &ListAdmirersResponse{Admirers: make([]Admirer, 0, len(likes)), NextPaginationToken: nextToken}
	for _, l := range likes {
		resp.Admirers = append(resp.Admirers, Admirer{
			UserId:        formatID(l.LikerID),
			UnixTimestamp: uint64(l.CreatedAt.UnixMilli()),
		})
	}
	return resp, nil
}

// ListMyLikes returns the users the caller liked who have no active match
// with them yet, newest first. Pagination works as in ListAdmirers.
func (s *Service) ListMyLikes(ctx context.Context, req *ListMyLikesRequest) (*ListMyLikesResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	likes, nextToken, err := s.likeRepo.ListMyLikes(ctx, userID, req.PaginationToken, admirersPageSize)
	if err != nil {
		s.appCtx.Logger.Error("ListMyLikes failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &ListMyLikesResponse{Likes: make([]LikedUser, 0, len(likes)), NextPaginationToken: nextToken}
	for _, l := range likes {
		resp.Likes = append(resp.Likes, LikedUser{
			UserId:        formatID(l.LikedID),
			UnixTimestamp: uint64(l.CreatedAt.UnixMilli()),
		})
	}
	return resp, nil
}

// ListMatches returns the active matches of a user.
func (s *Service) ListMatches(ctx context.Context, req *UserRequest) (*ListMatchesResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}
	matches, err := s.engine.ListMatches(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &ListMatchesResponse{Matches: make([]MatchView, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, matchView(m))
	}
	return resp, nil
}

// Act decodes a button payload and runs it.
//
// Behavior:
//   - One action per user per config.Matching.ActionCooldown; faster callers
//     get ResourceExhausted.
//   - Unknown payloads → InvalidArgument.
//   - like_/pass_ also return the next candidate from the deck.
//
// Example:
//
//	svc.Act(ctx, &ActRequest{UserId: "7", Data: "reveal_12"})
func (s *Service) Act(ctx context.Context, req *ActRequest) (*ActResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}
	act, err := action.Decode(req.Data)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	allowed, err := s.appCtx.RedisCache.AllowAction(ctx, userID, s.appCtx.Config.Matching.ActionCooldown)
	if err != nil {
		// rate limiting is best effort
		s.appCtx.Logger.Warn("rate limit check failed", "user", userID, "err", err)
	} else if !allowed {
		return nil, svcErr.Map(svcErr.ErrRateLimited)
	}

	resp := &ActResponse{Action: act.String()}
	switch a := act.(type) {
	case action.Like:
		res := s.engine.Like(ctx, userID, a.TargetID)
		if res.Err != nil {
			return nil, svcErr.Map(res.Err)
		}
		lr := likeResponse(res)
		resp.Status, resp.MatchId = lr.Status, lr.MatchId
		resp.Next = s.next(ctx, userID, req.Filters)

	case action.Pass:
		res := s.engine.Pass(ctx, userID, a.TargetID)
		if res.Err != nil {
			return nil, svcErr.Map(res.Err)
		}
		resp.Status = string(res.Status)
		resp.Next = s.next(ctx, userID, req.Filters)

	case action.Unlike:
		removed, err := s.engine.Unlike(ctx, userID, a.TargetID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		resp.Status = map[bool]string{true: "unliked", false: "noop"}[removed]

	case action.Reveal:
		if err := s.paid.Reveal(ctx, a.MatchID, userID); err != nil {
			return nil, svcErr.Map(err)
		}
		resp.Revealed = true

	case action.Unmatch:
		m, err := s.engine.Unmatch(ctx, a.MatchID, userID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		v := matchView(*m)
		resp.Match = &v

	case action.Next:
		resp.Next = s.next(ctx, userID, req.Filters)

	default:
		return nil, svcErr.Map(errors.New("unhandled action " + act.String()))
	}
	return resp, nil
}
