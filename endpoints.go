package manacube

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// GetAllPatrons returns the UUIDs of every patron.
func (c *Client) GetAllPatrons(ctx context.Context, opts ...RequestOption) ([]string, error) {
	return getJSON[[]string](ctx, c, "patrons/uuids", opts)
}

// GetPatron returns a single patron.
func (c *Client) GetPatron(ctx context.Context, playerUUID string, opts ...RequestOption) (UUIDName, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return UUIDName{}, err
	}
	return getJSON[UUIDName](ctx, c, joinPath("patrons", "uuid", id), opts)
}

// GetGamemodeSvas returns the special value items of a gamemode.
func (c *Client) GetGamemodeSvas(ctx context.Context, gamemode string, opts ...RequestOption) ([]GamemodeSva, error) {
	if err := required(arg{"gamemode", gamemode}); err != nil {
		return nil, err
	}
	return getJSON[[]GamemodeSva](ctx, c, joinPath("svas", "gamemode", gamemode), opts)
}

// GetUserSvas returns the special value items a player owns in a gamemode.
func (c *Client) GetUserSvas(ctx context.Context, playerUUID, gamemode string, opts ...RequestOption) ([]UserSva, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return nil, err
	}
	if err := required(arg{"gamemode", gamemode}); err != nil {
		return nil, err
	}
	return getJSON[[]UserSva](ctx, c, joinPath("svas", "user", id, gamemode), opts)
}

// GetSvaSalesData returns sales data for an item type in a gamemode.
func (c *Client) GetSvaSalesData(ctx context.Context, gamemode, itemType string, opts ...RequestOption) ([]SvaSalesData, error) {
	if err := required(arg{"gamemode", gamemode}, arg{"itemType", itemType}); err != nil {
		return nil, err
	}
	return getJSON[[]SvaSalesData](ctx, c, joinPath("svas", "sales", gamemode, itemType), opts)
}

// GetSvaCirculation returns the circulation report of a gamemode.
func (c *Client) GetSvaCirculation(ctx context.Context, gamemode string, opts ...RequestOption) (SvaCirculation, error) {
	if err := required(arg{"gamemode", gamemode}); err != nil {
		return nil, err
	}
	return getJSON[SvaCirculation](ctx, c, joinPath("svas", "circulation", gamemode), opts)
}

// GetUUIDFromName resolves a player name.
func (c *Client) GetUUIDFromName(ctx context.Context, name string, opts ...RequestOption) (UUIDName, error) {
	if err := required(arg{"name", name}); err != nil {
		return UUIDName{}, err
	}
	return getJSON[UUIDName](ctx, c, joinPath("uuid", "name", name), opts)
}

// GetNameFromUUID resolves a player UUID.
func (c *Client) GetNameFromUUID(ctx context.Context, playerUUID string, opts ...RequestOption) (UUIDName, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return UUIDName{}, err
	}
	return getJSON[UUIDName](ctx, c, joinPath("uuid", "uuid", id), opts)
}

// GetPlayerStats returns a player's overall statistics.
func (c *Client) GetPlayerStats(ctx context.Context, playerUUID string, opts ...RequestOption) (PlayerStats, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return PlayerStats{}, err
	}
	return getJSON[PlayerStats](ctx, c, joinPath("stats", id), opts)
}

// GetPlayerGamemodeStats returns a player's statistics in one gamemode.
func (c *Client) GetPlayerGamemodeStats(ctx context.Context, playerUUID, gamemode string, opts ...RequestOption) (PlayerStats, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return PlayerStats{}, err
	}
	if err := required(arg{"gamemode", gamemode}); err != nil {
		return PlayerStats{}, err
	}
	return getJSON[PlayerStats](ctx, c, joinPath("stats", id, gamemode), opts)
}

// GetShopItems returns the current shop prices of a gamemode.
func (c *Client) GetShopItems(ctx context.Context, gamemode string, opts ...RequestOption) ([]ShopItem, error) {
	if err := required(arg{"gamemode", gamemode}); err != nil {
		return nil, err
	}
	return getJSON[[]ShopItem](ctx, c, joinPath("economy", "shop", gamemode), opts)
}

// GetPriceHistory returns the price history of a shop item.
func (c *Client) GetPriceHistory(ctx context.Context, gamemode, itemID string, opts ...RequestOption) ([]ShopItem, error) {
	if err := required(arg{"gamemode", gamemode}, arg{"itemID", itemID}); err != nil {
		return nil, err
	}
	return getJSON[[]ShopItem](ctx, c, joinPath("economy", "history", gamemode, itemID), opts)
}

// GetVolumeHistory returns the trade volume history of a shop item.
func (c *Client) GetVolumeHistory(ctx context.Context, gamemode, itemID string, opts ...RequestOption) ([]VolumeHistory, error) {
	if err := required(arg{"gamemode", gamemode}, arg{"itemID", itemID}); err != nil {
		return nil, err
	}
	return getJSON[[]VolumeHistory](ctx, c, joinPath("economy", "volume", gamemode, itemID), opts)
}

// GetGuildByName looks a guild up by name.
func (c *Client) GetGuildByName(ctx context.Context, name string, opts ...RequestOption) (Guild, error) {
	if err := required(arg{"name", name}); err != nil {
		return Guild{}, err
	}
	return getJSON[Guild](ctx, c, joinPath("guild", "name", name), opts)
}

// GetGuildByPlayer returns the guild a player belongs to.
func (c *Client) GetGuildByPlayer(ctx context.Context, playerUUID string, opts ...RequestOption) (Guild, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return Guild{}, err
	}
	return getJSON[Guild](ctx, c, joinPath("guild", "player", id), opts)
}

// GetFriends returns a player's friend list.
func (c *Client) GetFriends(ctx context.Context, playerUUID string, opts ...RequestOption) ([]Friend, error) {
	id, err := c.normalizeUUID("uuid", playerUUID)
	if err != nil {
		return nil, err
	}
	return getJSON[[]Friend](ctx, c, joinPath("friends", id), opts)
}

// GetFactionLeaderboard returns the faction leaderboard for a statistic.
func (c *Client) GetFactionLeaderboard(ctx context.Context, gamemode, statistic string, opts ...RequestOption) ([]Faction, error) {
	if err := required(arg{"gamemode", gamemode}, arg{"statistic", statistic}); err != nil {
		return nil, err
	}
	return getJSON[[]Faction](ctx, c, joinPath("factions", gamemode, statistic), opts)
}

// GetLeaderboard returns the player leaderboard for a statistic.
func (c *Client) GetLeaderboard(ctx context.Context, gamemode, statistic string, opts ...RequestOption) ([]LeaderboardEntry, error) {
	if err := required(arg{"gamemode", gamemode}, arg{"statistic", statistic}); err != nil {
		return nil, err
	}
	return getJSON[[]LeaderboardEntry](ctx, c, joinPath("leaderboard", gamemode, statistic), opts)
}

// GetOnlineCount returns the number of players online.
func (c *Client) GetOnlineCount(ctx context.Context, opts ...RequestOption) (int, error) {
	return getJSON[int](ctx, c, "online/count", opts)
}

type arg struct {
	name  string
	value string
}

func required(args ...arg) error {
	for _, a := range args {
		if strings.TrimSpace(a.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingArgument, a.name)
		}
	}
	return nil
}

func joinPath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(strings.TrimSpace(segment))
	}
	return strings.Join(escaped, "/")
}
