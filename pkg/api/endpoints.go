package api

import (
	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// Catalog is the embedded descriptor table the bindings below are built from.
var Catalog = catalog.MustDefault()

// Typed bindings.
var (
	AdminDeleteTask   = catalog.MustEndpoint[playfab.Empty](Catalog, "Admin/DeleteTask")
	AdminGetTitleData = catalog.MustEndpoint[GetTitleDataResult](Catalog, "Admin/GetTitleData")

	ServerGetPlayerStatistics = catalog.MustEndpoint[GetPlayerStatisticsResult](Catalog, "Server/GetPlayerStatistics")

	ClientLoginWithCustomID = catalog.MustEndpoint[LoginResult](Catalog, "Client/LoginWithCustomID")
	ClientGetLeaderboard    = catalog.MustEndpoint[GetLeaderboardResult](Catalog, "Client/GetLeaderboard")

	AuthenticationGetEntityToken      = catalog.MustEndpoint[EntityTokenResponse](Catalog, "Authentication/GetEntityToken")
	AuthenticationValidateEntityToken = catalog.MustEndpoint[ValidateEntityTokenResponse](Catalog, "Authentication/ValidateEntityToken")

	EventWriteEvents          = catalog.MustEndpoint[WriteEventsResponse](Catalog, "Event/WriteEvents")
	EventWriteTelemetryEvents = catalog.MustEndpoint[WriteEventsResponse](Catalog, "Event/WriteTelemetryEvents")

	EconomyGetItem = catalog.MustEndpoint[GetItemResponse](Catalog, "Economy/GetItem")

	MultiplayerCreateMatchmakingTicket = catalog.MustEndpoint[CreateMatchmakingTicketResult](Catalog, "Multiplayer/CreateMatchmakingTicket")
)

// Raw returns an untyped binding for any endpoint in the embedded table.
func Raw(name string) (playfab.Endpoint[playfab.Raw], error) {
	return catalog.EndpointFor[playfab.Raw](Catalog, name)
}
