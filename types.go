package manacube

import "encoding/json"

// GamemodeSva is a special value item template available in a gamemode.
type GamemodeSva struct {
	ItemType        string          `json:"itemType" yaml:"itemType" validate:"required"`
	Slot            string          `json:"slot" yaml:"slot"`
	Version         int             `json:"version" yaml:"version"`
	Material        string          `json:"material" yaml:"material"`
	Durability      int             `json:"durability" yaml:"durability"`
	DisplayName     string          `json:"displayName" yaml:"displayName"`
	Lore            []string        `json:"lore" yaml:"lore"`
	Enchants        json.RawMessage `json:"enchants,omitempty" yaml:"-"`
	CustomModelData int             `json:"customModelData" yaml:"customModelData"`
	Unbreakable     bool            `json:"unbreakable" yaml:"unbreakable"`
	LeatherColor    json.RawMessage `json:"leatherColor,omitempty" yaml:"-"`
}

// UserSva is one special value item owned by a player.
type UserSva struct {
	ID              int64  `json:"id" yaml:"id"`
	ItemType        string `json:"itemType" yaml:"itemType" validate:"required"`
	OriginalOwner   string `json:"originalOwner" yaml:"originalOwner"`
	Owner           string `json:"owner" yaml:"owner"`
	ObtainTime      int64  `json:"obtainTime" yaml:"obtainTime"`
	CustomModelData int    `json:"customModelData" yaml:"customModelData"`
}

// SvaSalesData summarises sales of one item type.
type SvaSalesData struct {
	Currency     string  `json:"currency" yaml:"currency"`
	AverageValue float64 `json:"averageValue" yaml:"averageValue" validate:"gte=0"`
	TimeSold     int64   `json:"timeSold" yaml:"timeSold"`
}

// SvaCirculation is the free-form circulation report for a gamemode.
type SvaCirculation map[string]any

// UUIDName pairs a player UUID with their current name.
type UUIDName struct {
	UUID string `json:"uuid" yaml:"uuid" validate:"required"`
	Name string `json:"name" yaml:"name"`
}

// PlayerStats is a player's statistics, optionally scoped to a gamemode.
type PlayerStats struct {
	UUID     string            `json:"uuid" yaml:"uuid" validate:"required"`
	TotalExp int64             `json:"totalExp" yaml:"totalExp"`
	Stats    []json.RawMessage `json:"stats" yaml:"-"`
}

// ShopItem is one price point of a shop item.
type ShopItem struct {
	Time      int64   `json:"time" yaml:"time"`
	ShopID    string  `json:"shopID" yaml:"shopID"`
	ItemID    string  `json:"itemID" yaml:"itemID" validate:"required"`
	NewPrice  float64 `json:"newPrice" yaml:"newPrice"`
	OldPrice  float64 `json:"oldPrice" yaml:"oldPrice"`
	BasePrice float64 `json:"basePrice" yaml:"basePrice"`
	Item      string  `json:"item" yaml:"item"`
	PeriodMS  int64   `json:"periodMS" yaml:"periodMS"`
}

// VolumeHistory is one trade volume sample of a shop item.
type VolumeHistory struct {
	Time     int64   `json:"time" yaml:"time"`
	ShopID   string  `json:"shopID" yaml:"shopID"`
	ItemID   string  `json:"itemID" yaml:"itemID" validate:"required"`
	Volume   float64 `json:"volume" yaml:"volume" validate:"gte=0"`
	Item     string  `json:"item" yaml:"item"`
	PeriodMS int64   `json:"periodMS" yaml:"periodMS"`
}

// Guild describes a player guild.
type Guild struct {
	ID          int64             `json:"id" yaml:"id"`
	Tag         string            `json:"tag" yaml:"tag"`
	CreateDate  string            `json:"createDate" yaml:"createDate"`
	Rank        int               `json:"rank" yaml:"rank"`
	Level       int               `json:"level" yaml:"level"`
	Description string            `json:"description" yaml:"description"`
	HomeServer  string            `json:"homeServer" yaml:"homeServer"`
	Members     []json.RawMessage `json:"members" yaml:"-"`
}

// Friend is an entry in a player's friend list.
type Friend struct {
	UUID string `json:"uuid" yaml:"uuid" validate:"required"`
	Name string `json:"name" yaml:"name"`
}

// Faction is one row of a weekly faction leaderboard.
type Faction struct {
	Time        int64   `json:"time" yaml:"time"`
	Week        string  `json:"week" yaml:"week"`
	Statistic   string  `json:"statistic" yaml:"statistic"`
	PlayerUUID  string  `json:"player_uuid" yaml:"player_uuid"`
	FactionName string  `json:"factionName" yaml:"factionName"`
	Place       int     `json:"place" yaml:"place" validate:"gte=0"`
	Value       float64 `json:"value" yaml:"value"`
	Payout      float64 `json:"payout" yaml:"payout"`
}

// LeaderboardEntry is one free-form leaderboard row.
type LeaderboardEntry map[string]any
