package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	manacube "github.com/manacube/manacube-go"
)

// endpointCall invokes one client method with positional args.
type endpointCall func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error)

type endpointCommand struct {
	use     string
	short   string
	minArgs int
	maxArgs int
	call    endpointCall
}

type endpointGroup struct {
	use      string
	short    string
	commands []endpointCommand
}

var endpointGroups = []endpointGroup{
	{
		use:   "patrons",
		short: "Query patrons",
		commands: []endpointCommand{
			{use: "list", short: "List patron UUIDs", call: func(ctx context.Context, c *manacube.Client, _ []string, opts []manacube.RequestOption) (any, error) {
				return c.GetAllPatrons(ctx, opts...)
			}},
			{use: "get <uuid>", short: "Show a patron", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetPatron(ctx, args[0], opts...)
			}},
		},
	},
	{
		use:   "player",
		short: "Query players",
		commands: []endpointCommand{
			{use: "uuid <name>", short: "Resolve a player name to a UUID", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetUUIDFromName(ctx, args[0], opts...)
			}},
			{use: "name <uuid>", short: "Resolve a UUID to a player name", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetNameFromUUID(ctx, args[0], opts...)
			}},
			{use: "stats <uuid> [gamemode]", short: "Show player statistics", minArgs: 1, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				if len(args) == 2 {
					return c.GetPlayerGamemodeStats(ctx, args[0], args[1], opts...)
				}
				return c.GetPlayerStats(ctx, args[0], opts...)
			}},
			{use: "friends <uuid>", short: "List a player's friends", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetFriends(ctx, args[0], opts...)
			}},
		},
	},
	{
		use:   "svas",
		short: "Query special value items",
		commands: []endpointCommand{
			{use: "gamemode <gamemode>", short: "List a gamemode's items", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetGamemodeSvas(ctx, args[0], opts...)
			}},
			{use: "user <uuid> <gamemode>", short: "List items a player owns", minArgs: 2, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetUserSvas(ctx, args[0], args[1], opts...)
			}},
			{use: "sales <gamemode> <type>", short: "Show sales data for an item type", minArgs: 2, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetSvaSalesData(ctx, args[0], args[1], opts...)
			}},
			{use: "circulation <gamemode>", short: "Show item circulation", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetSvaCirculation(ctx, args[0], opts...)
			}},
		},
	},
	{
		use:   "economy",
		short: "Query the player shop",
		commands: []endpointCommand{
			{use: "shop <gamemode>", short: "List shop items", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetShopItems(ctx, args[0], opts...)
			}},
			{use: "prices <gamemode> <item>", short: "Show an item's price history", minArgs: 2, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetPriceHistory(ctx, args[0], args[1], opts...)
			}},
			{use: "volume <gamemode> <item>", short: "Show an item's trade volume", minArgs: 2, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetVolumeHistory(ctx, args[0], args[1], opts...)
			}},
		},
	},
	{
		use:   "guild",
		short: "Query guilds",
		commands: []endpointCommand{
			{use: "name <name>", short: "Show a guild by name", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetGuildByName(ctx, args[0], opts...)
			}},
			{use: "player <uuid>", short: "Show a player's guild", minArgs: 1, maxArgs: 1, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetGuildByPlayer(ctx, args[0], opts...)
			}},
		},
	},
	{
		use:   "leaderboard",
		short: "Query leaderboards",
		commands: []endpointCommand{
			{use: "players <gamemode> <statistic>", short: "Show the player leaderboard", minArgs: 2, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetLeaderboard(ctx, args[0], args[1], opts...)
			}},
			{use: "factions <gamemode> <statistic>", short: "Show the faction leaderboard", minArgs: 2, maxArgs: 2, call: func(ctx context.Context, c *manacube.Client, args []string, opts []manacube.RequestOption) (any, error) {
				return c.GetFactionLeaderboard(ctx, args[0], args[1], opts...)
			}},
		},
	},
}

var onlineCmd = &cobra.Command{
	Use:   "online",
	Short: "Show the number of players online",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEndpoint(cmd, "online", args, func(ctx context.Context, c *manacube.Client, _ []string, opts []manacube.RequestOption) (any, error) {
			count, err := c.GetOnlineCount(ctx, opts...)
			if err != nil {
				return nil, err
			}
			return map[string]int{"online": count}, nil
		})
	},
}

func init() {
	for _, group := range endpointGroups {
		parent := &cobra.Command{Use: group.use, Short: group.short}
		for _, spec := range group.commands {
			parent.AddCommand(newEndpointCommand(group.use, spec))
		}
		rootCmd.AddCommand(parent)
	}

	addEndpointFlags(onlineCmd)
	rootCmd.AddCommand(onlineCmd)
}

func newEndpointCommand(group string, spec endpointCommand) *cobra.Command {
	name := strings.Fields(spec.use)[0]
	call := spec.call
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.RangeArgs(spec.minArgs, spec.maxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEndpoint(cmd, group+"."+name, args, call)
		},
	}
	addEndpointFlags(cmd)
	return cmd
}

func addEndpointFlags(cmd *cobra.Command) {
	addOutputFlags(cmd)
	cmd.Flags().Bool("queue", false, "wait in the rate-limit queue instead of failing fast (default from queue.enabled)")
}

// requestOptions turns an explicit --queue flag into a per-call override.
func requestOptions(cmd *cobra.Command) ([]manacube.RequestOption, error) {
	flag := cmd.Flags().Lookup("queue")
	if flag == nil || !flag.Changed {
		return nil, nil
	}
	enabled, err := cmd.Flags().GetBool("queue")
	if err != nil {
		return nil, err
	}
	return []manacube.RequestOption{manacube.Queueing(enabled)}, nil
}

func runEndpoint(cmd *cobra.Command, name string, args []string, call endpointCall) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	opts, err := requestOptions(cmd)
	if err != nil {
		return err
	}

	client, err := newAPIClient(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close() // nolint:errcheck // best-effort cleanup

	value, err := call(cmd.Context(), client.Client, args, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	sink, err := openCommandSink(cmd, strings.Join(append([]string{name}, args...), "."), format)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	return writeRendered(sink.writer, format, value)
}
