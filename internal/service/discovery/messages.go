package discovery

import (
	"strconv"

	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/service/ranking"
)

// Ids travel as decimal strings, like the rest of the API.

type Filters struct {
	Campus     string `json:"campus,omitempty"`
	Department string `json:"department,omitempty"`
	Year       string `json:"year,omitempty"`
}

type RankRequest struct {
	ViewerUserId string  `json:"viewer_user_id"`
	Filters      Filters `json:"filters"`
}

type CandidateView struct {
	UserId          string   `json:"user_id"`
	Name            string   `json:"name,omitempty"`
	Campus          string   `json:"campus"`
	Department      string   `json:"department"`
	Year            string   `json:"year"`
	Interests       []string `json:"interests,omitempty"`
	SharedInterests []string `json:"shared_interests,omitempty"`
	VibeScore       int      `json:"vibe_score,omitempty"`
	LikedYou        bool     `json:"liked_you,omitempty"`
	Score           float64  `json:"score,omitempty"`
}

type RankResponse struct {
	Candidates []CandidateView `json:"candidates"`
}

type NextCandidateRequest struct {
	ViewerUserId string  `json:"viewer_user_id"`
	Filters      Filters `json:"filters"`
	// Reset drops the cached deck first, e.g. after filters changed.
	Reset bool `json:"reset,omitempty"`
}

type NextCandidateResponse struct {
	Candidate *CandidateView `json:"candidate,omitempty"`
}

type LikeRequest struct {
	ActorUserId     string `json:"actor_user_id"`
	RecipientUserId string `json:"recipient_user_id"`
}

type LikeResponse struct {
	Status  string `json:"status"`
	MatchId string `json:"match_id,omitempty"`
}

type PassRequest struct {
	ActorUserId     string `json:"actor_user_id"`
	RecipientUserId string `json:"recipient_user_id"`
}

type PassResponse struct {
	Status string `json:"status"`
}

type UnlikeRequest struct {
	ActorUserId     string `json:"actor_user_id"`
	RecipientUserId string `json:"recipient_user_id"`
}

type UnlikeResponse struct {
	Removed bool `json:"removed"`
}

type MatchRequest struct {
	MatchId string `json:"match_id"`
	UserId  string `json:"user_id"`
}

type MatchView struct {
	MatchId     string `json:"match_id"`
	User1Id     string `json:"user1_id"`
	User2Id     string `json:"user2_id"`
	InitiatorId string `json:"initiator_id"`
	Revealed    bool   `json:"revealed"`
	ChatActive  bool   `json:"chat_active"`
	// UnixTimestamp is the match creation time in milliseconds.
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type RevealResponse struct {
	Revealed bool `json:"revealed"`
	Balance  *int `json:"balance,omitempty"`
}

type UserRequest struct {
	UserId string `json:"user_id"`
}

type CountAdmirersResponse struct {
	Count uint64 `json:"count"`
}

type ListAdmirersRequest struct {
	UserId          string  `json:"user_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

type Admirer struct {
	UserId        string `json:"user_id"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type ListAdmirersResponse struct {
	Admirers            []Admirer `json:"admirers"`
	NextPaginationToken *string   `json:"next_pagination_token,omitempty"`
}

type ListMyLikesRequest struct {
	UserId          string  `json:"user_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

// LikedUser is someone the caller liked who has not liked back yet.
type LikedUser struct {
	UserId        string `json:"user_id"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type ListMyLikesResponse struct {
	Likes               []LikedUser `json:"likes"`
	NextPaginationToken *string     `json:"next_pagination_token,omitempty"`
}

type ListMatchesResponse struct {
	Matches []MatchView `json:"matches"`
}

type ActRequest struct {
	UserId  string  `json:"user_id"`
	Data    string  `json:"data"`
	Filters Filters `json:"filters"`
}

// ActResponse carries whatever the decoded action produced. After a like or
// pass on a candidate, Next holds the following candidate.
type ActResponse struct {
	Action   string         `json:"action"`
	Status   string         `json:"status,omitempty"`
	MatchId  string         `json:"match_id,omitempty"`
	Revealed bool           `json:"revealed,omitempty"`
	Match    *MatchView     `json:"match,omitempty"`
	Next     *CandidateView `json:"next,omitempty"`
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

func candidateView(c ranking.Candidate) CandidateView {
	v := userView(c.User)
	v.Interests = c.Interests
	v.SharedInterests = c.SharedInterests
	v.VibeScore = c.VibeScore
	v.LikedYou = c.LikedYou
	v.Score = c.Score
	return v
}

func userView(u db.User) CandidateView {
	return CandidateView{
		UserId:     formatID(u.ID),
		Name:       u.Name,
		Campus:     u.Campus,
		Department: u.Department,
		Year:       u.Year,
	}
}

func matchView(m db.Match) MatchView {
	return MatchView{
		MatchId:       formatID(m.ID),
		User1Id:       formatID(m.User1ID),
		User2Id:       formatID(m.User2ID),
		InitiatorId:   formatID(m.InitiatorID),
		Revealed:      m.Revealed,
		ChatActive:    m.ChatActive,
		UnixTimestamp: uint64(m.CreatedAt.UnixMilli()),
	}
}
