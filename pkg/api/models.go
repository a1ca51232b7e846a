// Package api provides typed request/response models and endpoint bindings for
// commonly used operations. Every binding is built from the descriptor table, so
// paths and credential rules live in one place.
package api

import (
	"encoding/json"
	"time"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// Authenticated can be embedded in a request to carry its own AuthContext.
type Authenticated struct {
	AuthenticationContext *playfab.AuthContext `json:"-"`
}

// PlayFabAuthContext implements playfab.AuthContextCarrier for both values
// and pointers of any request embedding Authenticated.
func (a Authenticated) PlayFabAuthContext() *playfab.AuthContext {
	return a.AuthenticationContext
}

// EntityKey identifies an entity.
type EntityKey struct {
	ID   string `json:"Id"`
	Type string `json:"Type,omitempty"`
}

// NameIdentifier identifies a resource by name or id.
type NameIdentifier struct {
	ID   string `json:"Id,omitempty"`
	Name string `json:"Name,omitempty"`
}

// DeleteTaskRequest deletes a scheduled task.
type DeleteTaskRequest struct {
	Identifier *NameIdentifier `json:"Identifier,omitempty"`
}

// GetTitleDataRequest reads title data.
type GetTitleDataRequest struct {
	Keys          []string `json:"Keys,omitempty"`
	OverrideLabel string   `json:"OverrideLabel,omitempty"`
}

// GetTitleDataResult holds title data key/value pairs.
type GetTitleDataResult struct {
	Data map[string]string `json:"Data,omitempty"`
}

// GetPlayerStatisticsRequest reads a player's statistics.
type GetPlayerStatisticsRequest struct {
	PlayFabID      string   `json:"PlayFabId,omitempty"`
	StatisticNames []string `json:"StatisticNames,omitempty"`
}

// StatisticValue is one statistic.
type StatisticValue struct {
	StatisticName string `json:"StatisticName"`
	Value         int    `json:"Value"`
	Version       uint32 `json:"Version"`
}

// GetPlayerStatisticsResult holds statistics.
type GetPlayerStatisticsResult struct {
	PlayFabID  string           `json:"PlayFabId,omitempty"`
	Statistics []StatisticValue `json:"Statistics,omitempty"`
}

// LoginWithCustomIDRequest signs a player in with a custom identifier.
type LoginWithCustomIDRequest struct {
	TitleID       string `json:"TitleId,omitempty"`
	CustomID      string `json:"CustomId"`
	CreateAccount bool   `json:"CreateAccount,omitempty"`
}

// EntityTokenResponse is an entity token with its owner.
type EntityTokenResponse struct {
	Entity          *EntityKey `json:"Entity,omitempty"`
	EntityToken     string     `json:"EntityToken,omitempty"`
	TokenExpiration *time.Time `json:"TokenExpiration,omitempty"`
}

// LoginResult is returned by every login call.
type LoginResult struct {
	PlayFabID     string               `json:"PlayFabId,omitempty"`
	SessionTicket string               `json:"SessionTicket,omitempty"`
	NewlyCreated  bool                 `json:"NewlyCreated"`
	EntityToken   *EntityTokenResponse `json:"EntityToken,omitempty"`
	LastLoginTime *time.Time           `json:"LastLoginTime,omitempty"`
}

// AuthContext builds the session context described by a login result.
func (r LoginResult) AuthContext() *playfab.AuthContext {
	ac := &playfab.AuthContext{PlayFabID: r.PlayFabID, ClientSessionTicket: r.SessionTicket}
	if r.EntityToken != nil {
		ac.EntityToken = r.EntityToken.EntityToken
		if r.EntityToken.Entity != nil {
			ac.EntityID = r.EntityToken.Entity.ID
			ac.EntityType = r.EntityToken.Entity.Type
		}
	}
	return ac
}

// GetLeaderboardRequest reads a page of a legacy leaderboard.
type GetLeaderboardRequest struct {
	Authenticated
	StatisticName   string `json:"StatisticName"`
	StartPosition   int    `json:"StartPosition"`
	MaxResultsCount int    `json:"MaxResultsCount,omitempty"`
}

// PlayerLeaderboardEntry is one leaderboard row.
type PlayerLeaderboardEntry struct {
	DisplayName string `json:"DisplayName,omitempty"`
	PlayFabID   string `json:"PlayFabId,omitempty"`
	Position    int    `json:"Position"`
	StatValue   int    `json:"StatValue"`
}

// GetLeaderboardResult is a leaderboard page.
type GetLeaderboardResult struct {
	Leaderboard []PlayerLeaderboardEntry `json:"Leaderboard,omitempty"`
	Version     int                      `json:"Version"`
}

// GetEntityTokenRequest exchanges a credential for an entity token.
type GetEntityTokenRequest struct {
	Entity *EntityKey `json:"Entity,omitempty"`
}

// ValidateEntityTokenRequest checks another entity's token.
type ValidateEntityTokenRequest struct {
	Authenticated
	EntityToken string `json:"EntityToken"`
}

// ValidateEntityTokenResponse describes the validated token.
type ValidateEntityTokenResponse struct {
	Entity               *EntityKey `json:"Entity,omitempty"`
	IdentityProvider     string     `json:"IdentityProvider,omitempty"`
	IdentifiedDeviceType string     `json:"IdentifiedDeviceType,omitempty"`
}

// EventContents is one custom event.
type EventContents struct {
	Entity            *EntityKey      `json:"Entity,omitempty"`
	EventNamespace    string          `json:"EventNamespace"`
	Name              string          `json:"Name"`
	OriginalID        string          `json:"OriginalId,omitempty"`
	OriginalTimestamp *time.Time      `json:"OriginalTimestamp,omitempty"`
	Payload           json.RawMessage `json:"Payload,omitempty"`
	PayloadJSON       string          `json:"PayloadJSON,omitempty"`
}

// WriteEventsRequest writes a batch of events.
type WriteEventsRequest struct {
	Authenticated
	Events []EventContents `json:"Events"`
}

// WriteEventsResponse holds the server-assigned event ids.
type WriteEventsResponse struct {
	AssignedEventIds []string `json:"AssignedEventIds,omitempty"`
}

// GetItemRequest reads one catalog item.
type GetItemRequest struct {
	Authenticated
	ID          string              `json:"Id,omitempty"`
	AlternateID *CatalogAlternateID `json:"AlternateId,omitempty"`
}

// CatalogAlternateID is an alternate catalog item identifier.
type CatalogAlternateID struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// CatalogItem is an Economy item. Fields beyond the common ones are kept raw.
type CatalogItem struct {
	ID                string            `json:"Id,omitempty"`
	Type              string            `json:"Type,omitempty"`
	Title             map[string]string `json:"Title,omitempty"`
	Description       map[string]string `json:"Description,omitempty"`
	Tags              []string          `json:"Tags,omitempty"`
	ContentType       string            `json:"ContentType,omitempty"`
	DisplayProperties json.RawMessage   `json:"DisplayProperties,omitempty"`
}

// GetItemResponse wraps a catalog item.
type GetItemResponse struct {
	Item *CatalogItem `json:"Item,omitempty"`
}

// MatchmakingPlayer is a ticket member.
type MatchmakingPlayer struct {
	Entity     EntityKey       `json:"Entity"`
	Attributes json.RawMessage `json:"Attributes,omitempty"`
}

// CreateMatchmakingTicketRequest opens a matchmaking ticket.
type CreateMatchmakingTicketRequest struct {
	Authenticated
	Creator            MatchmakingPlayer `json:"Creator"`
	GiveUpAfterSeconds int               `json:"GiveUpAfterSeconds"`
	MembersToMatchWith []EntityKey       `json:"MembersToMatchWith,omitempty"`
	QueueName          string            `json:"QueueName"`
}

// CreateMatchmakingTicketResult carries the new ticket id.
type CreateMatchmakingTicketResult struct {
	TicketID string `json:"TicketId"`
}
